package dto

// ADUserDTO хранит информацию о пользователе, полученную из Active Directory.
type ADUserDTO struct {
	Email     string `json:"email"`      // mail
	FirstName string `json:"first_name"` // givenName
	LastName  string `json:"last_name"`  // sn
	Phone     string `json:"phone"`      // telephoneNumber
}
