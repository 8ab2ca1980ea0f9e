package forms

// Widget - как поле формы рисуется в шаблоне.
type Widget struct {
	Name        string
	Label       string
	Type        string // text, email, textarea
	Placeholder string
	Class       string
	Rows        int
	Required    bool
	MaxLength   int
}

var ClientWidgets = []Widget{
	{Name: "name", Label: "Name", Type: "text", Placeholder: "Client full name", Class: "form-control", Required: true, MaxLength: 100},
	{Name: "email", Label: "Email", Type: "email", Placeholder: "client@email.com", Class: "form-control", Required: true, MaxLength: 254},
	{Name: "phone", Label: "Phone", Type: "text", Placeholder: "+56 9 1234 5678", Class: "form-control", MaxLength: 20},
}

// поле client рисуется отдельно как select
var ReportWidgets = []Widget{
	{Name: "title", Label: "Title", Type: "text", Placeholder: "Report title", Class: "form-control", Required: true, MaxLength: 150},
	{Name: "description", Label: "Description", Type: "textarea", Placeholder: "Report description...", Class: "form-control", Rows: 4},
}
