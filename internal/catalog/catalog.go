// Package catalog loads the site's static content fixtures and derives the
// filtered views the pages render.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
)

// Availability is a delivery mode a service is offered in.
type Availability string

const (
	InPerson Availability = "In-person"
	Virtual  Availability = "Virtual"
	// All disables availability filtering.
	All Availability = "all"
)

type Service struct {
	ID               int            `json:"id"`
	Name             string         `json:"name"`
	ShortDescription string         `json:"shortDescription"`
	FullDescription  string         `json:"fullDescription"`
	Duration         string         `json:"duration"`
	Price            string         `json:"price"`
	Availability     []Availability `json:"availability"`
	Benefits         []string       `json:"benefits"`
	Image            string         `json:"image"`
}

type Specialty struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Image            string   `json:"image"`
	Color            string   `json:"color"`
	RelatedServices  []string `json:"relatedServices"`
	Techniques       []string `json:"techniques"`
}

// FlexID accepts either a JSON number or a JSON string.
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

type FAQ struct {
	ID        FlexID `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Category  string `json:"category"`
	DateAdded string `json:"dateAdded"`
}

type Testimonial struct {
	ID          FlexID `json:"id"`
	Rating      int    `json:"rating"`
	Quote       string `json:"quote"`
	Text        string `json:"text"`
	Author      string `json:"author"`
	ServiceType string `json:"serviceType"`
	Date        string `json:"date"`
}

// Fixture file names under the content root.
const (
	ServicesFile     = "services.json"
	SpecialtiesFile  = "specialties.json"
	FAQsFile         = "faqs.json"
	TestimonialsFile = "testimonials.json"
)

// Catalog is the in-memory content of the site. It is read-only after Load.
type Catalog struct {
	services     []Service
	specialties  []Specialty
	faqs         []FAQ
	testimonials []Testimonial
}

// Load reads every fixture from fsys. A missing file leaves its section
// empty; a malformed one is an error.
func Load(fsys fs.FS) (*Catalog, error) {
	var (
		svc  struct{ Services []Service }
		spec struct{ Specialties []Specialty }
		faq  struct{ FAQs []FAQ }
		tst  struct{ Testimonials []Testimonial }
	)
	sources := []struct {
		name string
		dst  any
	}{
		{ServicesFile, &svc},
		{SpecialtiesFile, &spec},
		{FAQsFile, &faq},
		{TestimonialsFile, &tst},
	}
	for _, src := range sources {
		if err := readFixture(fsys, src.name, src.dst); err != nil {
			return nil, err
		}
	}
	return &Catalog{
		services:     svc.Services,
		specialties:  spec.Specialties,
		faqs:         faq.FAQs,
		testimonials: tst.Testimonials,
	}, nil
}

func readFixture(fsys fs.FS, name string, dst any) error {
	data, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Services returns services offered with the given availability, in fixture
// order, truncated to limit when limit > 0.
func (c *Catalog) Services(filter Availability, limit int) []Service {
	out := make([]Service, 0, len(c.services))
	for _, s := range c.services {
		if filter != All && filter != "" && !s.offers(filter) {
			continue
		}
		out = append(out, s)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s Service) offers(a Availability) bool {
	return slices.Contains(s.Availability, a)
}

// Service looks up a service by id.
func (c *Catalog) Service(id int) (Service, bool) {
	for _, s := range c.services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Specialties returns specialties related to service ("" or "all" for
// every one), in fixture order.
func (c *Catalog) Specialties(service string) []Specialty {
	out := make([]Specialty, 0, len(c.specialties))
	for _, s := range c.specialties {
		if service != "" && service != string(All) && !slices.Contains(s.RelatedServices, service) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Specialty looks up a specialty by id.
func (c *Catalog) Specialty(id int) (Specialty, bool) {
	for _, s := range c.specialties {
		if s.ID == id {
			return s, true
		}
	}
	return Specialty{}, false
}

// FAQs filters by category ("" or "all" for every category) and by a
// case-insensitive search over question and answer.
func (c *Catalog) FAQs(category, search string) []FAQ {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]FAQ, 0, len(c.faqs))
	for _, f := range c.faqs {
		if category != "" && category != string(All) && f.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(f.Question), term) &&
			!strings.Contains(strings.ToLower(f.Answer), term) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Categories returns the distinct FAQ categories, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range c.faqs {
		if _, ok := seen[f.Category]; ok {
			continue
		}
		seen[f.Category] = struct{}{}
		out = append(out, f.Category)
	}
	sort.Strings(out)
	return out
}

// Testimonials returns testimonials for serviceType ("" or "all" for every
// one), in fixture order.
func (c *Catalog) Testimonials(serviceType string) []Testimonial {
	out := make([]Testimonial, 0, len(c.testimonials))
	for _, t := range c.testimonials {
		if serviceType != "" && serviceType != string(All) && t.ServiceType != serviceType {
			continue
		}
		out = append(out, t)
	}
	return out
}

