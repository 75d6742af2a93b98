package dispatch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/notification-center/internal/model"
)

// template is one kind of synthetic job-platform event.
type template struct {
	category model.Category
	priority model.Priority
	title    string
	body     string
	target   string
}

var templates = []template{
	{model.CategoryApplication, model.PriorityMedium, "Application viewed", "%s viewed your application for %s.", "/applications"},
	{model.CategoryApplication, model.PriorityHigh, "Application status changed", "Your application at %s for %s moved to review.", "/applications"},
	{model.CategoryMessage, model.PriorityMedium, "New message", "A recruiter from %s replied about %s.", "/messages"},
	{model.CategoryInterview, model.PriorityHigh, "Interview scheduled", "%s scheduled an interview for %s.", "/interviews"},
	{model.CategoryInterview, model.PriorityUrgent, "Interview starts soon", "Your %s interview for %s begins in 30 minutes.", "/interviews"},
	{model.CategoryOffer, model.PriorityUrgent, "Offer received", "%s sent you an offer for %s.", "/offers"},
	{model.CategorySystem, model.PriorityLow, "Profile tip", "Profiles like yours at %s list skills for %s.", ""},
	{model.CategoryReminder, model.PriorityLow, "Follow up", "It has been a week since you applied to %s for %s.", "/applications"},
}

var (
	companies = []string{"Acme", "Globex", "Initech", "Umbrella", "Hooli", "Stark Industries"}
	roles     = []string{"Backend Engineer", "Data Analyst", "Product Designer", "SRE", "Engineering Manager"}
)

// Synthetic generates realistic events on a fixed interval. It stands in
// for a server push channel in demos.
type Synthetic struct {
	interval time.Duration
	now      func() time.Time
	rng      *rand.Rand
}

// NewSynthetic creates a generator ticking every interval.
func NewSynthetic(interval time.Duration) *Synthetic {
	if interval <= 0 {
		interval = 45 * time.Second
	}
	return &Synthetic{
		interval: interval,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
	}
}

// Name implements Channel.
func (s *Synthetic) Name() string { return "synthetic" }

// Run implements Channel.
func (s *Synthetic) Run(ctx context.Context, deliver func(model.Notification)) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			deliver(s.Generate())
		}
	}
}

// Generate builds one unread notification with a fresh id. The owner is
// left empty for the dispatcher to fill.
func (s *Synthetic) Generate() model.Notification {
	t := templates[s.rng.IntN(len(templates))]
	company := companies[s.rng.IntN(len(companies))]
	role := roles[s.rng.IntN(len(roles))]
	id := uuid.NewString()

	n := model.Notification{
		ID:        id,
		Category:  t.category,
		Priority:  t.priority,
		Title:     t.title,
		Body:      fmt.Sprintf(t.body, company, role),
		CreatedAt: s.now().UTC(),
	}
	if t.target != "" {
		n.ActionTarget = t.target + "/" + id[:8]
	}
	return n
}
