package forms

import (
	"strings"

	"client-reports/internal/models"
)

// ClientForm - создание и редактирование клиента.
type ClientForm struct {
	Name  string `form:"name" validate:"required,max=100"`
	Email string `form:"email" validate:"required,max=254,email"`
	Phone string `form:"phone" validate:"max=20"`
}

func ClientFormFrom(c models.Client) ClientForm {
	return ClientForm{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

func (f *ClientForm) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Phone = strings.TrimSpace(f.Phone)
}

func (f *ClientForm) Validate() Errors {
	f.Normalize()
	return check(f)
}

func (f ClientForm) Apply(c *models.Client) {
	c.Name = f.Name
	c.Email = f.Email
	c.Phone = f.Phone
}

func (f ClientForm) Values() map[string]string {
	return map[string]string{"name": f.Name, "email": f.Email, "phone": f.Phone}
}
