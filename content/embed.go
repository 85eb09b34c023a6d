// Package content embeds the site's static JSON fixtures.
package content

import "embed"

// FS holds services.json, specialties.json, faqs.json and testimonials.json.
//
//go:embed *.json
var FS embed.FS
