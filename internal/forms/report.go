package forms

import (
	"strconv"
	"strings"

	"client-reports/internal/models"
)

// ReportForm - created_at в форму намеренно не входит, его ставит система.
type ReportForm struct {
	Title       string `form:"title" validate:"required,max=150"`
	Description string `form:"description"`
	Client      string `form:"client" validate:"required,numeric"`
}

func ReportFormFrom(r models.Report) ReportForm {
	f := ReportForm{Title: r.Title, Description: r.Description}
	if r.ClientID != 0 {
		f.Client = strconv.FormatUint(uint64(r.ClientID), 10)
	}
	return f
}

func (f *ReportForm) Normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Description = strings.TrimSpace(f.Description)
	f.Client = strings.TrimSpace(f.Client)
}

func (f *ReportForm) Validate() Errors {
	f.Normalize()
	errs := check(f)
	if !errs.Has("client") && f.ClientID() == 0 {
		errs.Add("client", "Select a valid choice.")
	}
	return errs
}

// ClientID - выбранный клиент, 0 если значение не разобралось.
func (f ReportForm) ClientID() uint {
	id, err := strconv.ParseUint(f.Client, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

func (f ReportForm) Values() map[string]string {
	return map[string]string{"title": f.Title, "description": f.Description, "client": f.Client}
}
