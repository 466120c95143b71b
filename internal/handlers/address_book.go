package handlers

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"storefront/internal/models"
)

type addressRequest struct {
	Label      string `json:"label"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	PostalCode string `json:"postalCode"`
	IsDefault  bool   `json:"isDefault"`
}

func (r addressRequest) normalized() addressRequest {
	r.Label = strings.TrimSpace(r.Label)
	r.FullName = strings.TrimSpace(r.FullName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Street = strings.TrimSpace(r.Street)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.Country = strings.TrimSpace(r.Country)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
	return r
}

// validateAddressFields returns one message per offending field, empty
// when the request is acceptable. Call on a normalized request.
func validateAddressFields(r addressRequest) []string {
	var problems []string

	if n := utf8.RuneCountInString(r.Label); n < 2 || n > 30 {
		problems = append(problems, "label must be 2-30 characters")
	}
	if n := utf8.RuneCountInString(r.FullName); n < 3 || n > 50 {
		problems = append(problems, "fullName must be 3-50 characters")
	}
	if len(r.Phone) != 10 || !isDigits(r.Phone) {
		problems = append(problems, "phone must be exactly 10 digits")
	}
	if n := utf8.RuneCountInString(r.Street); n < 10 || n > 200 {
		problems = append(problems, "street must be 10-200 characters")
	}
	for _, field := range []struct{ name, value string }{
		{"city", r.City},
		{"state", r.State},
		{"country", r.Country},
	} {
		if field.value == "" {
			problems = append(problems, fmt.Sprintf("%s is required", field.name))
		}
	}
	if len(r.PostalCode) != 6 || !isDigits(r.PostalCode) {
		problems = append(problems, "postalCode must be exactly 6 digits")
	}

	return problems
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func clearDefaults(addrs []models.Address) {
	for i := range addrs {
		addrs[i].IsDefault = false
	}
}

func findAddress(addrs []models.Address, id string) int {
	for i, addr := range addrs {
		if addr.ID == id {
			return i
		}
	}
	return -1
}

// addAddress appends addr to the collection. The first address, or one
// explicitly marked default, becomes the sole default.
func addAddress(addrs []models.Address, addr models.Address) []models.Address {
	if addr.IsDefault || len(addrs) == 0 {
		clearDefaults(addrs)
		addr.IsDefault = true
	}
	return append(addrs, addr)
}

// updateAddress replaces the address with the given id in place. Marking
// it default clears every sibling; an update that drops the default flag
// from the current default keeps it, so the collection never ends up with
// zero defaults.
func updateAddress(addrs []models.Address, id string, addr models.Address) bool {
	index := findAddress(addrs, id)
	if index == -1 {
		return false
	}

	wasDefault := addrs[index].IsDefault
	if addr.IsDefault {
		clearDefaults(addrs)
		addr.IsDefault = true
	} else if wasDefault {
		addr.IsDefault = true
	}

	addr.ID = id
	addrs[index] = addr
	return true
}

// removeAddress deletes the address with the given id. When the default
// is removed and addresses remain, the first remaining one is promoted.
func removeAddress(addrs []models.Address, id string) ([]models.Address, bool) {
	index := findAddress(addrs, id)
	if index == -1 {
		return addrs, false
	}

	wasDefault := addrs[index].IsDefault

	remaining := make([]models.Address, 0, len(addrs)-1)
	remaining = append(remaining, addrs[:index]...)
	remaining = append(remaining, addrs[index+1:]...)

	if wasDefault && len(remaining) > 0 {
		remaining[0].IsDefault = true
	}
	return remaining, true
}

// setDefaultAddress clears every default and sets exactly the named one.
func setDefaultAddress(addrs []models.Address, id string) bool {
	index := findAddress(addrs, id)
	if index == -1 {
		return false
	}
	clearDefaults(addrs)
	addrs[index].IsDefault = true
	return true
}
