package domain

import "github.com/contractreg/contractreg/internal/coreerrors"

func errRequired(field string) error {
	return coreerrors.NewValidation("%s is required", field)
}
