package mail

type NotificationEmailData struct {
	Name  string
	Title string
	Body  string
	Type  string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}
