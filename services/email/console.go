package emailsvc

import (
	"fmt"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"

	"github.com/koinonia-app/koinonia/core"
)

// SentMessages records what the console services delivered. Tests read it.
var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// ResetSentMessages empties SentMessages.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

// LastSentMessage returns the most recent message, if any.
func LastSentMessage() (core.EmailMessage, bool) {
	mu.Lock()
	defer mu.Unlock()
	if len(SentMessages) == 0 {
		return core.EmailMessage{}, false
	}
	return SentMessages[len(SentMessages)-1], true
}

type consoleService struct {
	conf          *core.Config
	logger        core.Logger
	subjPrefix    string
	disableOutput bool
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService prints messages to the logger instead of sending them.
func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{
		conf:       conf,
		logger:     logger,
		subjPrefix: "[" + conf.AppName + "] ",
	}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if err := msg.Render(svc.conf); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
		return
	}
	if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
		body, err := svc.format(*msg)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("formatting email: %v", err), err)
			return
		}
		if !svc.disableOutput {
			svc.logger.Info(body)
		}
		mu.Lock()
		SentMessages = append(SentMessages, *msg)
		mu.Unlock()
	}
}

func (svc consoleService) format(msg core.EmailMessage) (string, error) {
	body := new(strings.Builder)

	// Write mail header
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.conf.DefaultFromEmail.String())
	_, _ = fmt.Fprint(body, "MIME-Version: 1.0\r\n")
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", core.NowFunc().Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "CC: %s\r\n", joinAddresses(msg.Cc))
	_, _ = fmt.Fprintf(body, "BCC: %s\r\n", joinAddresses(msg.Bcc))

	var mixedW *multipart.Writer
	altW := multipart.NewWriter(body)
	defer altW.Close()

	if msg.HasAttachments() {
		mixedW = multipart.NewWriter(body)
		defer mixedW.Close()
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/mixed; boundary=%s\r\n", mixedW.Boundary())
	} else {
		_, _ = fmt.Fprintf(body, "Content-Type: multipart/alternative; boundary=%s\r\n", altW.Boundary())
	}
	_, _ = fmt.Fprint(body, "\r\n")

	if mixedW != nil {
		if _, err := mixedW.CreatePart(textproto.MIMEHeader{"Content-Type": {"multipart/alternative; boundary=" + altW.Boundary()}}); err != nil {
			return "", err
		}
	}

	w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/plain"}})
	if err != nil {
		return "", err
	}
	_, _ = fmt.Fprintf(w, "%s\r\n", msg.TextContent)

	if msg.HTMLContent != "" {
		if w, err = altW.CreatePart(textproto.MIMEHeader{"Content-Type": {"text/html"}}); err != nil {
			return "", err
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", msg.HTMLContent)
	}

	if mixedW != nil {
		for _, at := range msg.Attachments {
			w, err = mixedW.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {at.ContentType},
				"Content-Transfer-Encoding": {"base64"},
				"Content-Disposition":       {"attachment; filename=" + at.Filename}})
			if err != nil {
				return "", err
			}
			_, _ = fmt.Fprintf(w, "%s\r\n", at.Content.String())
		}
	}
	return body.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

type consoleServiceMock struct {
	consoleService
}

// NewConsoleServiceMock sends synchronously and silently.
func NewConsoleServiceMock(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleServiceMock{
		consoleService: consoleService{
			conf:          conf,
			logger:        logger,
			subjPrefix:    "[" + conf.AppName + "] ",
			disableOutput: true,
		},
	}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		// run synchronously
		svc.sendMessage(msg)
	}
}
