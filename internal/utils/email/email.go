package email

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/marlonmr/banco-mr/internal/config"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *Sender) send(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, subject)
	return nil
}

// SendRegistrationCredentials delivers the generated username and initial
// password to a freshly registered client.
func (s *Sender) SendRegistrationCredentials(to, firstName, username, password string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your registration was successful.\n\n"+
			"Username: %s\n"+
			"Password: %s\n\n"+
			"Please change your password the first time you sign in.\n"+
			"\nBest regards,\nBanco M&R",
		firstName, username, password,
	)
	return s.send(to, "Welcome to Banco M&R", body)
}

// SendPasswordResetLink sends the reset URL; the token expires in one hour.
func (s *Sender) SendPasswordResetLink(to, link string) error {
	body := fmt.Sprintf(
		"Click the following link to reset your password:\n\n%s\n\n"+
			"The link expires in 1 hour.\n"+
			"\nBest regards,\nBanco M&R",
		link,
	)
	return s.send(to, "Password Reset - Banco M&R", body)
}

// SendLoanRequested confirms that a loan request was registered.
func (s *Sender) SendLoanRequested(to, firstName, loanNumber string) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your loan request %s has been registered and is pending approval.\n"+
			"\nBest regards,\nBanco M&R",
		firstName, loanNumber,
	)
	return s.send(to, "Loan request received", body)
}

// SendLoanApproved notifies the client that the amount was credited.
func (s *Sender) SendLoanApproved(to, firstName, loanNumber, accountNumber string, amount decimal.Decimal) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your loan %s has been approved and %s has been credited to account %s.\n"+
			"\nBest regards,\nBanco M&R",
		firstName, loanNumber, amount.StringFixed(2), accountNumber,
	)
	return s.send(to, "Loan approved", body)
}

// SendPaymentReceived confirms a loan payment and the remaining balance.
func (s *Sender) SendPaymentReceived(to, firstName, loanNumber, document string, applied, balance decimal.Decimal) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your payment of %s to loan %s was applied (document %s).\n"+
			"Remaining loan balance: %s\n"+
			"\nBest regards,\nBanco M&R",
		firstName, applied.StringFixed(2), loanNumber, document, balance.StringFixed(2),
	)
	return s.send(to, "Payment received", body)
}

// SendPaymentReminder sends an upcoming or overdue installment reminder.
func (s *Sender) SendPaymentReminder(to, firstName, loanNumber string, dueDate time.Time, amount, arrearsRate decimal.Decimal, overdue bool) error {
	subject := "Upcoming Loan Payment Reminder"
	body := fmt.Sprintf("Dear %s,\n\n", firstName)
	if overdue {
		subject = "Overdue Loan Payment Notification"
		body += fmt.Sprintf(
			"Your payment of %s on loan %s was due on %s and is now overdue.\n"+
				"An arrears rate of %s%% applies while the installment remains unpaid.\n"+
				"Please make the payment as soon as possible.\n",
			amount.StringFixed(2), loanNumber, dueDate.Format("2006-01-02"), arrearsRate.StringFixed(2),
		)
	} else {
		body += fmt.Sprintf(
			"This is a reminder that your payment of %s on loan %s is due on %s.\n"+
				"Please ensure sufficient funds are available in your account.\n",
			amount.StringFixed(2), loanNumber, dueDate.Format("2006-01-02"),
		)
	}
	body += "\nBest regards,\nBanco M&R"
	return s.send(to, subject, body)
}

// SendTransactionNotification reports a deposit, withdrawal or transfer leg
// together with the new balance.
func (s *Sender) SendTransactionNotification(to, firstName, accountNumber, document, kind string, amount, balance decimal.Decimal) error {
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"A %s was made on your account %s.\n\n"+
			"Document number: %s\n"+
			"Amount: %s\n"+
			"New balance: %s\n"+
			"\nBest regards,\nBanco M&R",
		firstName, kind, accountNumber, document, amount.StringFixed(2), balance.StringFixed(2),
	)
	return s.send(to, fmt.Sprintf("%s Notification - Banco M&R", kind), body)
}

// SendCardRequestNotice tells the card desk about a new request.
func (s *Sender) SendCardRequestNotice(username, cardType, holderName string, accountID int64) error {
	body := fmt.Sprintf(
		"User %s has requested a new card:\n\n"+
			"Account: %d\n"+
			"Type: %s\n"+
			"Holder: %s\n\n"+
			"Please approve or reject the request in the administration panel.\n"+
			"\nBanco M&R",
		username, accountID, cardType, holderName,
	)
	return s.send(s.cfg.AdminEmail, "New card request", body)
}

// SendCardStateNotice informs the holder that a card was blocked or
// unblocked.
func (s *Sender) SendCardStateNotice(to, firstName, maskedNumber string, blocked bool) error {
	state := "unblocked and may be used normally"
	subject := "Card unblocked"
	if blocked {
		state = "BLOCKED. If you believe this is an error, please contact support"
		subject = "Card blocked"
	}
	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"Your card %s has been %s.\n"+
			"\nBest regards,\nBanco M&R",
		firstName, maskedNumber, state,
	)
	return s.send(to, subject, body)
}
