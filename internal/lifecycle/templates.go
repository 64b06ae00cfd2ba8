package lifecycle

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/amishk599/jobhunter/internal/model"
)

// category is the kind of employer response, chosen by batch position.
type category int

const (
	categoryAssignment category = iota
	categoryInterview
	categoryRejection
)

// categoryFor cycles assignment, interview, rejection by position in the batch.
// The cycle is deterministic; only interview dates and times are random.
func categoryFor(position int) category {
	return category(position % 3)
}

func (c category) String() string {
	switch c {
	case categoryAssignment:
		return "assignment"
	case categoryInterview:
		return "interview"
	default:
		return "rejection"
	}
}

func (c category) status() model.Status {
	switch c {
	case categoryAssignment:
		return model.StatusInterviewRequested
	case categoryInterview:
		return model.StatusInterviewScheduled
	default:
		return model.StatusRejected
	}
}

type responseTemplate struct {
	subject *template.Template
	body    *template.Template
	detail  *template.Template
}

func mustResponse(name, subject, body, detail string) responseTemplate {
	return responseTemplate{
		subject: template.Must(template.New(name + "_subject").Parse(subject)),
		body:    template.Must(template.New(name + "_body").Parse(body)),
		detail:  template.Must(template.New(name + "_detail").Parse(detail)),
	}
}

var responseTemplates = map[category]responseTemplate{
	categoryAssignment: mustResponse("assignment",
		`Next step: {{.Position}} at {{.Company}}`,
		`Hi,

Thank you for applying for the {{.Position}} role at {{.Company}}. We enjoyed reading your application and would like to invite you to complete a short take-home assignment.

Please send your solution back by {{.Date}}. Instructions are attached to this email.

Kind regards,
The {{.Company}} hiring team`,
		`Assignment received from {{.Company}}, due {{.Date}}`),

	categoryInterview: mustResponse("interview",
		`Interview invitation: {{.Position}} at {{.Company}}`,
		`Hi,

Thanks for your interest in the {{.Position}} position at {{.Company}}. We'd love to get to know you better and have scheduled an interview for {{.Date}} at {{.Time}}.

Let us know if this time does not work for you and we'll find another slot.

Best,
The {{.Company}} hiring team`,
		`Interview scheduled with {{.Company}} on {{.Date}} at {{.Time}}`),

	categoryRejection: mustResponse("rejection",
		`Update on your application: {{.Position}} at {{.Company}}`,
		`Hi,

Thank you for applying for the {{.Position}} role at {{.Company}}. After careful consideration we have decided to move forward with other candidates.

We appreciate the time you invested and encourage you to apply for future openings.

Kind regards,
The {{.Company}} hiring team`,
		`Not selected by {{.Company}} for {{.Position}}`),
}

// response is a rendered employer email.
type response struct {
	Subject string
	Body    string
	Detail  string
}

type templateData struct {
	Company  string
	Position string
	Date     string
	Time     string
}

// responder renders employer emails. randIntN picks interview days and slots.
type responder struct {
	window          time.Duration
	recruiterDomain string
	randIntN        func(n int) int
}

const (
	dateLayout = "Monday, January 2"
	timeLayout = "3:04 PM"

	firstSlotHour = 9
	slotCount     = 16 // half-hour slots from 9:00 to 16:30
)

func (r *responder) render(c category, app *model.Application, now time.Time) (response, error) {
	tmpl := responseTemplates[c]

	data := templateData{
		Company:  orDefault(app.Company, "the company"),
		Position: orDefault(app.Position, "open"),
	}
	switch c {
	case categoryAssignment:
		data.Date = now.Add(r.window).Format(dateLayout)
	case categoryInterview:
		at := r.interviewSlot(now)
		data.Date = at.Format(dateLayout)
		data.Time = at.Format(timeLayout)
	}

	var out response
	var err error
	if out.Subject, err = execute(tmpl.subject, data); err != nil {
		return response{}, err
	}
	if out.Body, err = execute(tmpl.body, data); err != nil {
		return response{}, err
	}
	if out.Detail, err = execute(tmpl.detail, data); err != nil {
		return response{}, err
	}
	return out, nil
}

// interviewSlot picks a day between tomorrow and the end of the window, then
// a half-hour slot during office hours.
func (r *responder) interviewSlot(now time.Time) time.Time {
	days := int(r.window / (24 * time.Hour))
	if days < 1 {
		days = 1
	}
	day := now.AddDate(0, 0, 1+r.randIntN(days))
	slot := r.randIntN(slotCount)
	return time.Date(day.Year(), day.Month(), day.Day(), firstSlotHour, 0, 0, 0, now.Location()).
		Add(time.Duration(slot) * 30 * time.Minute)
}

// sender is the synthetic recruiter address for a company.
func (r *responder) sender(company string) string {
	return fmt.Sprintf("careers@%s.%s", slug(company), r.recruiterDomain)
}

func execute(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "company"
	}
	return out
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
