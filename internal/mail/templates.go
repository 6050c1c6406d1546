package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #667eea; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
    .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
    .ticket-info { background: white; padding: 20px; border-radius: 8px; margin: 20px 0; border-left: 4px solid #667eea; }
    .button { display: inline-block; padding: 12px 30px; background: #667eea; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
    .footer { text-align: center; margin-top: 30px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>IT Helpdesk</h1>
      <p>{{.Title}}</p>
    </div>
    <div class="content">{{.Body}}</div>
    <div class="footer">
      <p>This is an automated message from the IT helpdesk.</p>
      <p>Please do not reply to this email.</p>
    </div>
  </div>
</body>
</html>`))

func render(title string, body template.HTML) string {
	var buf bytes.Buffer
	if err := layout.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{title, body}); err != nil {
		return string(body)
	}
	return buf.String()
}

func ticketInfo(ticket *domain.Ticket) template.HTML {
	return template.HTML(fmt.Sprintf(`<div class="ticket-info">
      <p><strong>Ticket:</strong> #%s</p>
      <p><strong>Requester:</strong> %s</p>
      <p><strong>Department:</strong> %s</p>
      <p><strong>Category:</strong> %s</p>
      <p><strong>Priority:</strong> %s</p>
      <p><strong>Subject:</strong> %s</p>
    </div>`,
		template.HTMLEscapeString(ticket.TicketNumber),
		template.HTMLEscapeString(ticket.RequesterName),
		template.HTMLEscapeString(ticket.Department),
		template.HTMLEscapeString(ticket.Category),
		template.HTMLEscapeString(string(ticket.Priority)),
		template.HTMLEscapeString(ticket.Subject)))
}

// NewTicketSubject and friends build the subject lines and bodies for the
// outbound notifications.

func NewTicketSubject(ticket *domain.Ticket) string {
	return fmt.Sprintf("[New Ticket] #%s - %s", ticket.TicketNumber, ticket.Subject)
}

func NewTicketBody(ticket *domain.Ticket) string {
	body := template.HTML(fmt.Sprintf(`<h2>New Ticket Received</h2>%s
    <p><strong>Description:</strong></p>
    <p style="background: white; padding: 15px; border-radius: 5px;">%s</p>`,
		ticketInfo(ticket), template.HTMLEscapeString(ticket.Description)))
	return render("New Ticket Created", body)
}

func ConfirmationSubject(ticket *domain.Ticket) string {
	return fmt.Sprintf("Ticket #%s Received - %s", ticket.TicketNumber, ticket.Subject)
}

func ConfirmationBody(ticket *domain.Ticket) string {
	body := template.HTML(fmt.Sprintf(`<h2>Your Ticket Has Been Received</h2>
    <p>Hello <strong>%s</strong>,</p>
    <p>We received your request and the IT team has been notified.</p>%s
    <p>Keep the ticket number for tracking. You will receive updates by email.</p>`,
		template.HTMLEscapeString(ticket.RequesterName), ticketInfo(ticket)))
	return render("Ticket Received", body)
}

func AssignedSubject(ticket *domain.Ticket) string {
	return fmt.Sprintf("[Assigned] Ticket #%s - %s", ticket.TicketNumber, ticket.Subject)
}

func AssignedBody(ticket *domain.Ticket, technicianName string) string {
	body := template.HTML(fmt.Sprintf(`<h2>Ticket Assigned to You</h2>
    <p>Hello <strong>%s</strong>,</p>
    <p>A ticket has been assigned to you:</p>%s
    <p><strong>Description:</strong></p>
    <p style="background: white; padding: 15px; border-radius: 5px;">%s</p>`,
		template.HTMLEscapeString(technicianName), ticketInfo(ticket),
		template.HTMLEscapeString(ticket.Description)))
	return render("Ticket Assigned", body)
}

func StatusUpdateSubject(ticket *domain.Ticket, newStatus domain.TicketStatus) string {
	return fmt.Sprintf("[Update] Ticket #%s - %s", ticket.TicketNumber, newStatus)
}

func StatusUpdateBody(ticket *domain.Ticket, oldStatus, newStatus domain.TicketStatus) string {
	extra := "<p>Our team keeps working on your ticket.</p>"
	if newStatus == domain.TicketStatusResolved {
		extra = "<p>If the problem was solved to your satisfaction no further action is needed. Otherwise please contact us.</p>"
	}
	body := template.HTML(fmt.Sprintf(`<h2>Ticket Status Updated</h2>
    <p>Hello <strong>%s</strong>,</p>
    <p>The status of your ticket changed:</p>
    <div class="ticket-info">
      <p><strong>Ticket:</strong> #%s</p>
      <p><strong>Subject:</strong> %s</p>
      <p><strong>Previous Status:</strong> %s</p>
      <p><strong>New Status:</strong> <strong style="color: #667eea;">%s</strong></p>
    </div>%s`,
		template.HTMLEscapeString(ticket.RequesterName),
		template.HTMLEscapeString(ticket.TicketNumber),
		template.HTMLEscapeString(ticket.Subject),
		oldStatus, newStatus, extra))
	return render("Status Updated", body)
}

func CommentSubject(ticket *domain.Ticket) string {
	return fmt.Sprintf("[Comment] Ticket #%s", ticket.TicketNumber)
}

func CommentBody(ticket *domain.Ticket, commenterName, comment string) string {
	body := template.HTML(fmt.Sprintf(`<h2>New Comment on Your Ticket</h2>
    <p>Hello <strong>%s</strong>,</p>
    <div class="ticket-info">
      <p><strong>Ticket:</strong> #%s</p>
      <p><strong>Subject:</strong> %s</p>
      <p><strong>Comment by:</strong> %s</p>
      <p><strong>Message:</strong></p>
      <p style="background: white; padding: 15px; border-radius: 5px;">%s</p>
    </div>`,
		template.HTMLEscapeString(ticket.RequesterName),
		template.HTMLEscapeString(ticket.TicketNumber),
		template.HTMLEscapeString(ticket.Subject),
		template.HTMLEscapeString(commenterName),
		template.HTMLEscapeString(comment)))
	return render("New Comment", body)
}

func PasswordResetSubject() string {
	return "[IT Helpdesk] Password Reset"
}

func PasswordResetBody(name, resetURL string) string {
	body := template.HTML(fmt.Sprintf(`<h2>Password Reset</h2>
    <p>Hello <strong>%s</strong>,</p>
    <p>We received a request to reset your password.</p>
    <a href="%s" class="button">Reset Password</a>
    <p style="color: #666; margin-top: 20px;">
      This link is valid for one hour.<br>
      If you did not request a reset, you can ignore this email.
    </p>`,
		template.HTMLEscapeString(name), template.HTMLEscapeString(resetURL)))
	return render("Password Reset", body)
}
