// Package poller periodically scans the inventory and emails owners about
// products that are running low.
package poller

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"stockroom/dblayer"
	"stockroom/dbtypes"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type LowStockAlert struct {
	OwnerID  string
	Products []LowStockProduct
}

type LowStockProduct struct {
	Name     string
	Quantity int64
	Category string
}

// Poller runs an infinite loop, scanning all products each pass.
type Poller struct {
	db             *dblayer.DB
	sendgridClient *sendgrid.Client
	recheckPeriod  time.Duration
	threshold      int64

	// Quantity at the time of the last alert, per product id.  A product is
	// re-alerted only when its quantity changes while still at or below the
	// threshold.  Only the Run goroutine touches this map.
	lastAlerted map[string]int64
}

func New(db *dblayer.DB, sendgridClient *sendgrid.Client, recheckPeriod time.Duration, threshold int64) *Poller {
	return &Poller{
		db:             db,
		sendgridClient: sendgridClient,
		recheckPeriod:  recheckPeriod,
		threshold:      threshold,
		lastAlerted:    map[string]int64{},
	}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.recheckPeriod)
	defer ticker.Stop()

	// Poll once right away --- ticker doesn't fire until the tick period has
	// elapsed.
	if err := p.pollProducts(ctx); err != nil {
		slog.ErrorContext(ctx, "Error during poller pass", slog.Any("err", err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := p.pollProducts(ctx); err != nil {
			slog.ErrorContext(ctx, "Error during poller pass", slog.Any("err", err))
		}
	}
}

func (p *Poller) pollProducts(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting poller pass")
	defer func() {
		slog.InfoContext(ctx, "Finished poller pass")
	}()

	products, err := p.db.AllProducts(ctx)
	if err != nil {
		return fmt.Errorf("while listing products: %w", err)
	}

	alerts := map[string]*LowStockAlert{}
	for _, product := range products {
		if product.Quantity > p.threshold {
			delete(p.lastAlerted, product.ID)
			continue
		}

		if last, ok := p.lastAlerted[product.ID]; ok && last == product.Quantity {
			continue
		}

		alert := alerts[product.OwnerID]
		if alert == nil {
			alert = &LowStockAlert{OwnerID: product.OwnerID}
			alerts[product.OwnerID] = alert
		}
		alert.Products = append(alert.Products, LowStockProduct{
			Name:     product.Name,
			Quantity: product.Quantity,
			Category: product.Category,
		})

		p.lastAlerted[product.ID] = product.Quantity
	}

	for _, alert := range alerts {
		slog.InfoContext(ctx, "Sending low-stock alert", slog.String("owner", alert.OwnerID), slog.Int("products", len(alert.Products)))
		if err := p.sendAlert(ctx, alert); err != nil {
			return fmt.Errorf("while sending low-stock alert: %w", err)
		}
	}

	return nil
}

func (p *Poller) sendAlert(ctx context.Context, alert *LowStockAlert) error {
	user, err := p.db.UserByID(ctx, alert.OwnerID)
	if err != nil {
		return fmt.Errorf("while retrieving user %s: %w", alert.OwnerID, err)
	}
	if user == nil || user.Email == "" {
		return nil
	}

	return p.sendEmailAlert(ctx, user, alert)
}

const emailPlain = `
{{- if .Products -}}
The following products are running low:
{{range .Products -}}
* {{.Name}} ({{.Category}}): {{.Quantity}} left.
{{end}}

Manage in the Web UI: https://stockroom.dev/products
{{end}}
`

var emailPlainTemplate = template.Must(template.New("email").Parse(emailPlain))

func (p *Poller) sendEmailAlert(ctx context.Context, user *dbtypes.User, alert *LowStockAlert) error {
	message := mail.NewV3Mail()
	message.From = mail.NewEmail("Stockroom Bot", "bot@stockroom.dev")
	message.Subject = "Stockroom Low-Stock Alert"

	personalization := mail.NewPersonalization()
	personalization.To = append(personalization.To, mail.NewEmail("", user.Email))
	message.Personalizations = append(message.Personalizations, personalization)

	textContent := &bytes.Buffer{}
	if err := emailPlainTemplate.Execute(textContent, alert); err != nil {
		return fmt.Errorf("while templating plain-text email content: %w", err)
	}

	message.Content = append(message.Content, mail.NewContent("text/plain", textContent.String()))

	resp, err := p.sendgridClient.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("while sending mail through SendGrid: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2XX response while sending mail through Sendgrid: %d %s", resp.StatusCode, resp.Body)
	}

	return nil
}
