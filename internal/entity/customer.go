package entity

import "strings"

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type Customer struct {
	ID        string  `json:"_id,omitempty"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   Address `json:"address"`
}

func (c Customer) EntityID() string { return c.ID }

// FullName is "First Last" with surrounding blanks trimmed.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// MissingFields lists required customer fields left blank, using dotted json
// paths for the address.
func (c Customer) MissingFields() []string {
	var out []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	check("firstName", c.FirstName)
	check("lastName", c.LastName)
	check("email", c.Email)
	check("phone", c.Phone)
	check("address.street", c.Address.Street)
	check("address.city", c.Address.City)
	check("address.state", c.Address.State)
	check("address.zipCode", c.Address.ZipCode)
	check("address.country", c.Address.Country)
	return out
}
