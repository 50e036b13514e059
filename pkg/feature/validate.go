package feature

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// codePattern restricts codes to characters that are safe in cache keys and URLs.
var codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.\-]*$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("flagcode", func(fl validator.FieldLevel) bool {
			return codePattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidCode reports whether code is an acceptable flag code.
func ValidCode(code string) bool {
	return len(code) <= 128 && codePattern.MatchString(code)
}

// Validate checks the flag's attributes and its rule.
// All errors wrap ErrInvalidFlag or ErrInvalidRule.
func (f *Flag) Validate() error {
	if f == nil {
		return errors.Join(ErrInvalidFlag, errors.New("flag cannot be nil"))
	}
	if err := validatorInstance().Struct(f); err != nil {
		return errors.Join(ErrInvalidFlag, describe(err))
	}
	return ValidateRule(f.Rule)
}

// Validate applies the same limits as Flag.Validate to the fields the patch sets.
func (p Patch) Validate() error {
	if err := validatorInstance().Struct(p); err != nil {
		return errors.Join(ErrInvalidFlag, describe(err))
	}
	return ValidateRule(p.Rule)
}

// ValidateRule checks a rule's parameters. A nil rule is valid.
// A time window whose start is after its end is accepted: it is simply never active.
func ValidateRule(r Rule) error {
	r = normalizeRule(r)
	if r == nil {
		return nil
	}
	switch r.(type) {
	case UserTargeting, GroupTargeting, TimeBasedActivation:
	default:
		return fmt.Errorf("%w: %T", ErrUnknownRuleKind, r)
	}
	if err := validatorInstance().Struct(r); err != nil {
		return errors.Join(ErrInvalidRule, describe(err))
	}
	return nil
}

// describe turns validator output into a compact, human-readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
