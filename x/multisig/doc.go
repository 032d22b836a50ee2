/*
Package multisig implements wallets jointly controlled by a set of owners.

A wallet is governed by proposals. Any owner can propose a transaction, a
list of instructions to be dispatched on behalf of the wallet. Owners
approve the transaction and once the threshold is reached and the optional
timelock elapsed, any owner can execute it. Execution happens at most once.

Changing the owner set or the threshold is an instruction as any other. The
wallet program accepts those instructions only when dispatched by an
execution of the very same wallet. Changing the owner set invalidates all
transactions that were proposed before the change.
*/
package multisig
