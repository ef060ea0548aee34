package booking

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"text/template"
	"time"
)

// Title is the email document title.
const Title = "New booking request"

// SubjectPrefix precedes the submitter's name in the email subject.
const SubjectPrefix = "New booking request - "

//go:embed templates/notification.html.tmpl
var notificationTemplate string

// Values are interpolated as plain text; escaping is opted into via RenderOptions.
var notificationTmpl = template.Must(
	template.New("notification").Option("missingkey=error").Parse(notificationTemplate),
)

var frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// FormatFrenchLongDate renders a YYYY-MM-DD value as "mercredi 12 mars 2025".
// Unparsable values are returned unchanged.
func FormatFrenchLongDate(value string) string {
	d, err := ParseDate(value)
	if err != nil {
		return value
	}
	return fmt.Sprintf("%s %d %s %d", frenchWeekdays[d.Weekday()], d.Day(), frenchMonths[d.Month()-1], d.Year())
}

// Subject builds the email subject for a request.
func Subject(req Request) string {
	return SubjectPrefix + req.Name
}

type emailBlock struct {
	Field Field
	Label string
	Value string
}

type emailData struct {
	Blocks        []emailBlock
	SubmittedDate string
	SubmittedTime string
}

// RenderOptions tune the notification document.
type RenderOptions struct {
	// Location stamps the submission footer. Defaults to UTC.
	Location *time.Location
	// EscapeValues HTML-escapes submitted values before interpolation.
	EscapeValues bool
}

// EmailRenderer renders the fixed notification document.
type EmailRenderer struct {
	loc    *time.Location
	escape bool
}

func NewEmailRenderer(opts RenderOptions) *EmailRenderer {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &EmailRenderer{loc: loc, escape: opts.EscapeValues}
}

// Render produces the HTML body for req, stamped with submittedAt.
func (r *EmailRenderer) Render(req Request, submittedAt time.Time) (string, error) {
	value := func(s string) string {
		if r.escape {
			return html.EscapeString(s)
		}
		return s
	}

	blocks := []emailBlock{
		{Field: FieldName, Label: "Full name", Value: value(req.Name)},
		{Field: FieldPhone, Label: "Phone", Value: value(req.Phone)},
		{Field: FieldEmail, Label: "Email", Value: value(req.Email)},
		{Field: FieldProfession, Label: "Profession", Value: value(req.Profession)},
		{Field: FieldAge, Label: "Age bracket", Value: value(req.Age)},
		{Field: FieldIncome, Label: "Household income", Value: value(req.Income)},
	}
	if req.HasDebt() {
		blocks = append(blocks, emailBlock{Field: FieldDebt, Label: "Credit/Debt", Value: value(req.Debt)})
	}
	blocks = append(blocks,
		emailBlock{Field: FieldDate, Label: "Preferred date", Value: value(FormatFrenchLongDate(req.Date))},
		emailBlock{Field: FieldTime, Label: "Preferred time", Value: value(req.Time)},
	)

	stamp := submittedAt.In(r.loc)
	data := emailData{
		Blocks:        blocks,
		SubmittedDate: stamp.Format("02/01/2006"),
		SubmittedTime: stamp.Format("15:04:05"),
	}

	var buf bytes.Buffer
	if err := notificationTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("booking: render email: %w", err)
	}
	return buf.String(), nil
}
