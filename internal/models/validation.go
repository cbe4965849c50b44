// file: internal/models/validation.go
package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("listing_tag", validateListingTag)
}

// validateListingTag enforces the tag shape: non-empty, at most 20
// characters, no commas (they would break the array encoding).
func validateListingTag(fl validator.FieldLevel) bool {
	tag := fl.Field().String()
	return tag != "" && len(tag) <= 20 && !strings.Contains(tag, ",")
}

// ValidateStruct runs tag validation and flattens the first failure
// into a readable message.
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %q failed validation rule %q", e.Field(), e.Tag())
		}
		return err
	}
	return nil
}

// NormalizeTags lowercases and trims tags, dropping empties and
// anything over the length ceiling.
func NormalizeTags(tags []string) StringArray {
	out := make(StringArray, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || len(t) > 20 {
			continue
		}
		out = append(out, t)
	}
	return out
}

// NormalizePrimaryImage enforces the at-most-one-primary invariant:
// the first image flagged primary wins; if none is flagged and images
// exist, the first becomes primary.
func NormalizePrimaryImage(images []ListingImage) []ListingImage {
	if len(images) == 0 {
		return images
	}
	seen := false
	for i := range images {
		if images[i].IsPrimary {
			if seen {
				images[i].IsPrimary = false
			}
			seen = true
		}
	}
	if !seen {
		images[0].IsPrimary = true
	}
	return images
}
