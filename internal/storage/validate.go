package storage

import (
	"strings"

	"trading-journal-go/internal/models"
)

// ValidateCreateAccount checks the fields every account needs.
func ValidateCreateAccount(in models.CreateAccountInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return Validationf("account name is required")
	}
	if strings.TrimSpace(in.Currency) == "" {
		return Validationf("account currency is required")
	}
	return nil
}

// ValidateUpdateAccount rejects blank replacements for required fields.
func ValidateUpdateAccount(id string, in models.UpdateAccountInput) error {
	if id == "" {
		return Validationf("account id is required")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return Validationf("account name cannot be blank")
	}
	if in.Currency != nil && strings.TrimSpace(*in.Currency) == "" {
		return Validationf("account currency cannot be blank")
	}
	return nil
}

// ValidateCreateEntry checks the owning account and date are present.
func ValidateCreateEntry(in models.CreateEntryInput) error {
	if in.AccountID == "" {
		return Validationf("entry account id is required")
	}
	if in.Date.IsZero() {
		return Validationf("entry date is required")
	}
	return nil
}

// ValidateEntryRef checks an entry reference carries both ids.
func ValidateEntryRef(id, accountID string) error {
	if id == "" {
		return Validationf("entry id is required")
	}
	if accountID == "" {
		return Validationf("account id is required for entry %s", id)
	}
	return nil
}
