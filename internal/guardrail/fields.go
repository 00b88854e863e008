package guardrail

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// Job field names as they appear in records and patches.
const (
	FieldMeasurements    = "measurements"
	FieldPhotoURLs       = "photo_urls"
	FieldNotes           = "notes"
	FieldPricingProvided = "pricing_provided"
	FieldAdditionalInfo  = "additional_info"
	FieldIssuesFound     = "issues_found"
	FieldResolution      = "resolution"

	FieldStatus                  = "status"
	FieldOutcome                 = "outcome"
	FieldOverview                = "overview"
	FieldCompletionNotes         = "completion_notes"
	FieldNextSteps               = "next_steps"
	FieldCommunicationWithClient = "communication_with_client"

	FieldAddressFull     = "address_full"
	FieldAddressStreet   = "address_street"
	FieldAddressSuburb   = "address_suburb"
	FieldAddressState    = "address_state"
	FieldAddressPostcode = "address_postcode"
)

type Class int

const (
	Unclassified Class = iota
	DraftSafe
	CompletionGated
)

func (c Class) String() string {
	switch c {
	case DraftSafe:
		return "draft-safe"
	case CompletionGated:
		return "completion-gated"
	default:
		return "unclassified"
	}
}

// Policy is the field partitioning of a job record: an allow-list of
// fields any active worker may write, a deny-list of fields only a final
// checkout may write, and the address fields that are only ever filled
// when empty. Fields on no list are unclassified and treated as
// draft-safe.
type Policy struct {
	DraftSafe       []string `json:"draftSafe"`
	CompletionGated []string `json:"completionGated"`
	Address         []string `json:"address"`
}

func DefaultPolicy() Policy {
	return Policy{
		DraftSafe: []string{
			FieldMeasurements,
			FieldPhotoURLs,
			FieldNotes,
			FieldPricingProvided,
			FieldAdditionalInfo,
			FieldIssuesFound,
			FieldResolution,
		},
		// order is the order blocked fields are reported in
		CompletionGated: []string{
			FieldOverview,
			FieldOutcome,
			FieldCompletionNotes,
			FieldNextSteps,
			FieldCommunicationWithClient,
			FieldStatus,
		},
		Address: []string{
			FieldAddressFull,
			FieldAddressStreet,
			FieldAddressSuburb,
			FieldAddressState,
			FieldAddressPostcode,
		},
	}
}

// LoadPolicy reads a YAML policy file. Lists missing from the file keep
// their default content.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("failed to read guardrail policy %q: %w", path, err)
	}

	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("failed to parse guardrail policy %q: %w", path, err)
	}

	def := DefaultPolicy()
	if len(p.DraftSafe) == 0 {
		p.DraftSafe = def.DraftSafe
	}
	if len(p.CompletionGated) == 0 {
		p.CompletionGated = def.CompletionGated
	}
	if len(p.Address) == 0 {
		p.Address = def.Address
	}
	return p, nil
}

type Classifier struct {
	policy  Policy
	classes map[string]Class
	address map[string]struct{}
	rank    map[string]int
}

// NewClassifier builds the lookup tables for p. A field listed both as
// draft-safe and gated is gated.
func NewClassifier(p Policy) *Classifier {
	c := &Classifier{
		policy:  p,
		classes: make(map[string]Class, len(p.DraftSafe)+len(p.CompletionGated)),
		address: make(map[string]struct{}, len(p.Address)),
		rank:    make(map[string]int, len(p.CompletionGated)),
	}
	for _, f := range p.DraftSafe {
		c.classes[f] = DraftSafe
	}
	for i, f := range p.CompletionGated {
		c.classes[f] = CompletionGated
		c.rank[f] = i
	}
	for _, f := range p.Address {
		c.address[f] = struct{}{}
	}
	return c
}

func (c *Classifier) Classify(field string) Class {
	return c.classes[field]
}

func (c *Classifier) IsAddress(field string) bool {
	_, ok := c.address[field]
	return ok
}

// IsDraftSafe reports whether field is explicitly on the draft-safe list.
func (c *Classifier) IsDraftSafe(field string) bool {
	return c.classes[field] == DraftSafe
}

func (c *Classifier) Policy() Policy {
	return c.policy
}

func (c *Classifier) gatedRank(field string) int {
	return c.rank[field]
}
