/*
Package errors implements the error kinds shared by every smallet package.

Root errors are declared with Register(code, description). Each root error
carries a unique ABCI code so that a client can tell error kinds apart
without parsing messages. Extensions (for example x/multisig) register
their own root errors in their errors.go file, in a code range of their own.

Create runtime errors by wrapping a root error at the point of failure:

	return errors.Wrap(errors.ErrNotFound, "wallet")
	return errors.Wrapf(multisig.ErrInvalidOwner, "owner %s", addr)

The first wrap attaches a stack trace. Use %+v to print it.

Test an error kind with the Is method of a root error:

	if multisig.ErrOwnerSetChanged.Is(err) { ... }
*/
package errors
