package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/fieldservice/jobvisit/internal/scope"
)

// TemplateItem is a read-only project entry copied into visit scopes.
type TemplateItem struct {
	Type  scope.ItemType `json:"type"`
	RefID string         `json:"ref_id"`
	Label string         `json:"label"`
	Qty   *float64       `json:"qty,omitempty"`
}

type Project struct {
	ID        uuid.UUID      `json:"id" gorm:"primaryKey;column:id;type:VARCHAR(255);"`
	CreatedAt time.Time      `json:"created_at" gorm:"column:created_at;not null"`
	Name      string         `json:"name" gorm:"column:name;not null"`
	Template  []TemplateItem `json:"template" gorm:"column:template;serializer:json;type:text"`
}

// ScopeItems returns the visit copies of the template entries.
func (p Project) ScopeItems() []scope.Item {
	items := make([]scope.Item, 0, len(p.Template))
	for _, t := range p.Template {
		items = append(items, scope.FromTemplate(t.Type, t.RefID, t.Label, t.Qty))
	}
	return items
}
