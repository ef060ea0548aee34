package landing

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/wolfman30/patrimoine-booking/internal/booking"
	"github.com/wolfman30/patrimoine-booking/internal/bookingform"
	"github.com/wolfman30/patrimoine-booking/pkg/logging"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

const (
	defaultTitle   = "Patrimoine Expert"
	defaultTagline = "Reduce your taxes and grow your wealth with an independent advisor."
)

var defaultBenefits = []string{
	"A free 30 minute review of your tax situation",
	"Personalised savings and investment strategies",
	"Independent advice with no obligation",
}

type pageData struct {
	Title           string
	Tagline         string
	Benefits        []string
	SubmitPath      string
	MinDate         string
	TimeSlots       []string
	AgeBrackets     []booking.Bracket
	IncomeBrackets  []booking.Bracket
	WeekdayMessage  string
	GenericError    string
	ConnectionError string
	Year            int
}

// Handler renders the landing page and its booking form.
type Handler struct {
	location *time.Location
	now      func() time.Time
	logger   *logging.Logger
}

func NewHandler(location *time.Location, logger *logging.Logger) *Handler {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{location: location, now: time.Now, logger: logger}
}

// Page handles GET /.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	now := h.now().In(h.location)
	data := pageData{
		Title:           defaultTitle,
		Tagline:         defaultTagline,
		Benefits:        defaultBenefits,
		SubmitPath:      bookingform.DefaultPath,
		MinDate:         booking.MinimumSelectableDate(now),
		TimeSlots:       booking.TimeSlots,
		AgeBrackets:     booking.AgeBrackets,
		IncomeBrackets:  booking.IncomeBrackets,
		WeekdayMessage:  bookingform.MessageWeekday,
		GenericError:    bookingform.MessageGenericError,
		ConnectionError: bookingform.MessageConnectionError,
		Year:            now.Year(),
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render landing page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
