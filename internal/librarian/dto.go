// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Library Management Contributors

package librarian

import "fmt"

// DTO carries librarian data across the API boundary without the password hash.
type DTO struct {
	ID          uint64 `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// ToDTO copies the public fields of l.
func ToDTO(l *Librarian) DTO {
	return DTO{
		ID:          l.ID,
		FirstName:   l.FirstName,
		LastName:    l.LastName,
		Email:       l.Email,
		PhoneNumber: l.PhoneNumber,
	}
}

// ToDTOs converts a slice of librarians.
func ToDTOs(ls []*Librarian) []DTO {
	out := make([]DTO, 0, len(ls))
	for _, l := range ls {
		out = append(out, ToDTO(l))
	}
	return out
}

// Apply copies the editable fields of d onto l. ID is never copied.
func (d DTO) Apply(l *Librarian) {
	l.FirstName = d.FirstName
	l.LastName = d.LastName
	l.Email = d.Email
	l.PhoneNumber = d.PhoneNumber
}

func (d DTO) String() string {
	return fmt.Sprintf("LibrarianDTO [id=%d, firstName=%s, lastName=%s, email=%s, phoneNumber=%s]",
		d.ID, d.FirstName, d.LastName, d.Email, d.PhoneNumber)
}
