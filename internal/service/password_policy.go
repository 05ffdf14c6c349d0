package service

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/shopcore-next/internal/config"
)

// bcrypt 只处理前 72 字节，超长密码直接拒绝
const passwordMaxBytes = 72

type passwordClass struct {
	name     string
	required func(config.PasswordPolicyConfig) bool
	match    func(rune) bool
}

var passwordClasses = []passwordClass{
	{"upper", func(p config.PasswordPolicyConfig) bool { return p.RequireUpper }, unicode.IsUpper},
	{"lower", func(p config.PasswordPolicyConfig) bool { return p.RequireLower }, unicode.IsLower},
	{"number", func(p config.PasswordPolicyConfig) bool { return p.RequireNumber }, unicode.IsDigit},
	{"special", func(p config.PasswordPolicyConfig) bool { return p.RequireSpecial }, isPasswordSpecial},
}

func isPasswordSpecial(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

// validatePassword 按配置的密码策略校验，不满足时返回包装了 ErrWeakPassword 的错误
func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty", ErrWeakPassword)
	}
	if len(password) > passwordMaxBytes {
		return fmt.Errorf("%w: longer than %d bytes", ErrWeakPassword, passwordMaxBytes)
	}
	if policy.MinLength > 0 && utf8.RuneCountInString(password) < policy.MinLength {
		return fmt.Errorf("%w: shorter than %d characters", ErrWeakPassword, policy.MinLength)
	}
	for _, class := range passwordClasses {
		if !class.required(policy) {
			continue
		}
		found := false
		for _, r := range password {
			if class.match(r) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: missing %s character", ErrWeakPassword, class.name)
		}
	}
	return nil
}
