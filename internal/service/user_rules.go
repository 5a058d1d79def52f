package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"

	"user-management-svc/internal/models"
	"user-management-svc/internal/repository"
	"user-management-svc/pkg/security"
)

// Rule names understood by the validator
const (
	RuleRequired  = "required"
	RuleNullable  = "nullable"
	RuleString    = "string"
	RuleMax       = "max"
	RuleMin       = "min"
	RuleIn        = "in"
	RuleEmail     = "email"
	RuleUnique    = "unique"
	RuleMimes     = "mimes"
	RuleConfirmed = "confirmed"
	RulePassword  = "password"
)

// Input field names
const (
	FieldPrefix     = "prefix"
	FieldFirstName  = "first_name"
	FieldMiddleName = "middle_name"
	FieldLastName   = "last_name"
	FieldSuffixName = "suffix_name"
	FieldUsername   = "username"
	FieldPhoto      = "photo"
	FieldEmail      = "email"
	FieldPassword   = "password"
)

var fieldOrder = []string{
	FieldPrefix,
	FieldFirstName,
	FieldMiddleName,
	FieldLastName,
	FieldSuffixName,
	FieldUsername,
	FieldPhoto,
	FieldEmail,
	FieldPassword,
}

// AllowedPhotoExtensions are the image types accepted for avatars
var AllowedPhotoExtensions = []string{"jpg", "png", "jpeg", "gif", "svg"}

// Rule is a single named constraint with its parameters
type Rule struct {
	Name   string
	Params []string
}

func (r Rule) String() string {
	if len(r.Params) == 0 {
		return r.Name
	}
	return r.Name + ":" + strings.Join(r.Params, ",")
}

func rule(name string, params ...string) Rule {
	return Rule{Name: name, Params: params}
}

// Rules returns the constraints per input field. A nil id means create mode,
// which adds the password rules; otherwise unique checks ignore that user.
func Rules(id *uint) map[string][]Rule {
	rules := map[string][]Rule{
		FieldPrefix:     {rule(RuleRequired), rule(RuleIn, models.PrefixList()...)},
		FieldFirstName:  {rule(RuleRequired), rule(RuleString), rule(RuleMax, "255")},
		FieldMiddleName: {rule(RuleNullable), rule(RuleString), rule(RuleMax, "255")},
		FieldLastName:   {rule(RuleRequired), rule(RuleString), rule(RuleMax, "255")},
		FieldSuffixName: {rule(RuleNullable), rule(RuleString), rule(RuleMax, "255")},
		FieldUsername:   {rule(RuleRequired), rule(RuleString), rule(RuleMax, "255"), uniqueRule("username", id)},
		FieldPhoto:      {rule(RuleNullable), rule(RuleMimes, AllowedPhotoExtensions...)},
		FieldEmail:      {rule(RuleRequired), rule(RuleEmail), rule(RuleMax, "255"), uniqueRule("email", id)},
	}

	if id == nil {
		rules[FieldPassword] = []Rule{
			rule(RuleNullable),
			rule(RuleMin, "8"),
			rule(RuleMax, "255"),
			rule(RuleConfirmed),
			rule(RulePassword),
		}
	}

	return rules
}

func uniqueRule(column string, id *uint) Rule {
	params := []string{"users", column}
	if id != nil {
		params = append(params, strconv.FormatUint(uint64(*id), 10), "id")
	}
	return rule(RuleUnique, params...)
}

// UserInput is the raw create or update payload
type UserInput struct {
	Prefix               string
	FirstName            string
	MiddleName           string
	LastName             string
	SuffixName           string
	Username             string
	Email                string
	Password             string
	PasswordConfirmation string
	Photo                *multipart.FileHeader
}

func (in UserInput) value(field string) string {
	switch field {
	case FieldPrefix:
		return in.Prefix
	case FieldFirstName:
		return in.FirstName
	case FieldMiddleName:
		return in.MiddleName
	case FieldLastName:
		return in.LastName
	case FieldSuffixName:
		return in.SuffixName
	case FieldUsername:
		return in.Username
	case FieldEmail:
		return in.Email
	case FieldPassword:
		return in.Password
	}
	return ""
}

// present reports whether the field was filled in. Passwords are never trimmed,
// so a whitespace-only password still goes through its rules.
func (in UserInput) present(field string) bool {
	switch field {
	case FieldPhoto:
		return in.Photo != nil
	case FieldPassword:
		return in.value(field) != ""
	}
	return strings.TrimSpace(in.value(field)) != ""
}

// RuleValidator evaluates Rules against a UserInput
type RuleValidator interface {
	Validate(ctx context.Context, id *uint, input UserInput) error
}

type ruleValidator struct {
	userRepo repository.UserRepository
	validate *validator.Validate
	policy   security.PasswordPolicy
}

// NewRuleValidator creates a rule validator backed by the user repository
func NewRuleValidator(userRepo repository.UserRepository, policy security.PasswordPolicy) RuleValidator {
	return &ruleValidator{
		userRepo: userRepo,
		validate: validator.New(),
		policy:   policy,
	}
}

// Validate returns a *ValidationError listing every failed rule, or nil
func (v *ruleValidator) Validate(ctx context.Context, id *uint, input UserInput) error {
	rules := Rules(id)
	verr := &ValidationError{}

	for _, field := range fieldOrder {
		fieldRules, ok := rules[field]
		if !ok {
			continue
		}
		if err := v.validateField(ctx, id, field, fieldRules, input, verr); err != nil {
			return err
		}
	}

	if verr.empty() {
		return nil
	}
	return verr
}

func (v *ruleValidator) validateField(ctx context.Context, id *uint, field string, rules []Rule, input UserInput, verr *ValidationError) error {
	label := strings.ReplaceAll(field, "_", " ")
	value := input.value(field)

	for _, r := range rules {
		switch r.Name {
		case RuleNullable:
			if !input.present(field) {
				return nil
			}
		case RuleRequired:
			if !input.present(field) {
				verr.add(field, r.Name, fmt.Sprintf("The %s field is required.", label))
				return nil
			}
		case RuleString:
			// form values always arrive as strings
		case RuleMax:
			if v.validate.Var(value, "max="+r.Params[0]) != nil {
				verr.add(field, r.Name, fmt.Sprintf("The %s field must not be greater than %s characters.", label, r.Params[0]))
			}
		case RuleMin:
			if v.validate.Var(value, "min="+r.Params[0]) != nil {
				verr.add(field, r.Name, fmt.Sprintf("The %s field must be at least %s characters.", label, r.Params[0]))
			}
		case RuleEmail:
			if v.validate.Var(value, "email") != nil {
				verr.add(field, r.Name, fmt.Sprintf("The %s field must be a valid email address.", label))
			}
		case RuleIn:
			if v.validate.Var(value, "oneof="+strings.Join(r.Params, " ")) != nil {
				verr.add(field, r.Name, fmt.Sprintf("The selected %s is invalid.", label))
			}
		case RuleUnique:
			exists, err := v.userRepo.ExistsByField(ctx, r.Params[1], value, id)
			if err != nil {
				return fmt.Errorf("check unique %s: %w", field, err)
			}
			if exists {
				verr.add(field, r.Name, fmt.Sprintf("The %s has already been taken.", label))
			}
		case RuleMimes:
			if !matchesExtension(input.Photo, r.Params) {
				verr.add(field, r.Name, fmt.Sprintf("The %s field must be a file of type: %s.", label, strings.Join(r.Params, ", ")))
			}
		case RuleConfirmed:
			if value != input.PasswordConfirmation {
				verr.add(field, r.Name, fmt.Sprintf("The %s field confirmation does not match.", label))
			}
		case RulePassword:
			for _, msg := range v.policy.Check(value) {
				verr.add(field, r.Name, msg)
			}
		default:
			return fmt.Errorf("unknown validation rule %q", r.Name)
		}
	}

	return nil
}

// matchesExtension checks both the client file extension and the extension implied
// by the sniffed content against allowed
func matchesExtension(file *multipart.FileHeader, allowed []string) bool {
	if file == nil || !extensionAllowed(clientExtension(file.Filename), allowed) {
		return false
	}
	ext, err := sniffExtension(file)
	if err != nil {
		return false
	}
	return extensionAllowed(ext, allowed)
}

func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// clientExtension returns the lowercased extension of the uploaded file name, without the dot
func clientExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// sniffExtension returns the extension implied by the file content, without the dot
func sniffExtension(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", fmt.Errorf("no file")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}

	return strings.TrimPrefix(mtype.Extension(), "."), nil
}
