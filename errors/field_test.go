package errors

import (
	"testing"
)

func TestFieldErrors(t *testing.T) {
	var (
		nameErr   = AppendField(nil, "Name", ErrUnauthorized)
		humanErr  = AppendField(nil, "Name", ErrHuman)
		ownersErr = AppendField(nil, "Owners", Wrap(ErrEmpty, "owners are required"))
	)

	cases := map[string]struct {
		err   error
		field string
		want  []error
	}{
		"single error": {
			err:   nameErr,
			field: "Name",
			want:  []error{nameErr},
		},
		"all errors of the field": {
			err:   AppendField(nameErr, "Name", ErrHuman),
			field: "Name",
			want:  []error{nameErr, humanErr},
		},
		"other fields are ignored": {
			err:   Append(nameErr, ownersErr),
			field: "Owners",
			want:  []error{ownersErr},
		},
		"wrapped field error": {
			err:   Wrap(ownersErr, "validate"),
			field: "Owners",
			want:  []error{ownersErr},
		},
		"nothing found": {
			err:   ownersErr,
			field: "Threshold",
		},
		"nil field error is skipped": {
			err:   AppendField(nil, "Threshold", nil),
			field: "Threshold",
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got := FieldErrors(tc.err, tc.field)
			if len(tc.want) == 0 && len(got) == 0 {
				return
			}
			if len(got) != len(tc.want) {
				t.Fatalf("want %d errors, got %v", len(tc.want), got)
			}
			for i := range got {
				if got[i].Error() != tc.want[i].Error() {
					t.Fatalf("want %q at %d, got %q", tc.want[i], i, got[i])
				}
			}
			if f := got[0].(*fieldError).field; f != tc.field {
				t.Fatalf("unexpected field %q", f)
			}
		})
	}
}
