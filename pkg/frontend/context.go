package frontend

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/platinummonkey/hrms-lite/pkg/middleware"
	"github.com/platinummonkey/hrms-lite/pkg/session"
)

// PageContext is the data every page template receives: the request, the
// current user, debug state and flash messages.
type PageContext struct {
	Request   *http.Request
	User      *session.User
	Debug     bool
	StaticURL string
}

// NewPageContext collects the request-scoped values set by the middleware
func NewPageContext(r *http.Request, debug bool, staticURL string) *PageContext {
	return &PageContext{
		Request:   r,
		User:      session.UserFromContext(r.Context()),
		Debug:     debug,
		StaticURL: staticURL,
	}
}

// CSRFToken returns a token for the X-CSRFToken header of scripted requests
func (p *PageContext) CSRFToken() string {
	return middleware.CSRFToken(p.Request.Context())
}

// CSRFInput returns a hidden form field carrying the token
func (p *PageContext) CSRFInput() template.HTML {
	return template.HTML(fmt.Sprintf(`<input type="hidden" name="%s" value="%s">`,
		middleware.CSRFFormField, template.HTMLEscapeString(p.CSRFToken())))
}

// Messages consumes the pending flash messages
func (p *PageContext) Messages() []session.Message {
	store := session.MessagesFromContext(p.Request.Context())
	if store == nil {
		return nil
	}
	return store.Messages()
}
