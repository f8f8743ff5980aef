package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

//go:embed templates/notification.html
var templatesFS embed.FS

var notificationTmpl = template.Must(template.ParseFS(templatesFS, "templates/notification.html"))

const defaultFrom = "nao-responda@ligue.com.br"

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	if from == "" {
		from = defaultFrom
	}
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
	}
}

func (s *EmailSender) SendNotification(to, name string, n *entity.Notification) error {
	m, err := s.BuildMessage(to, name, n)
	if err != nil {
		return err
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}

// BuildMessage monta o e-mail sem enviar.
func (s *EmailSender) BuildMessage(to, name string, n *entity.Notification) (*gomail.Message, error) {
	body, err := RenderNotification(name, n)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/html", body)
	return m, nil
}

func RenderNotification(name string, n *entity.Notification) (string, error) {
	if name == "" {
		name = "vendedor"
	}
	data := NotificationEmailData{
		Name:  name,
		Title: n.Title,
		Body:  n.Body,
		Type:  string(n.Type),
	}

	var body bytes.Buffer
	if err := notificationTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("erro ao processar template: %w", err)
	}
	return body.String(), nil
}
