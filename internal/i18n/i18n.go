// Package i18n 提供 pt-BR / en-US 文案与请求语言解析
package i18n

import (
	"fmt"
	"strings"

	"github.com/cupom-store/internal/constants"

	"github.com/gin-gonic/gin"
)

const (
	LocalePtBR = constants.LocalePtBR
	LocaleEnUS = constants.LocaleEnUS
)

// DefaultLocale 未识别语言时的回退
const DefaultLocale = LocalePtBR

// NormalizeLocale 归一化语言标识，pt / pt_br / en-gb 等都会映射到支持的语言
func NormalizeLocale(locale string) string {
	value := strings.ToLower(strings.TrimSpace(locale))
	value = strings.ReplaceAll(value, "_", "-")
	switch {
	case value == "":
		return DefaultLocale
	case strings.HasPrefix(value, "pt"):
		return LocalePtBR
	case strings.HasPrefix(value, "en"):
		return LocaleEnUS
	}
	return DefaultLocale
}

// ResolveLocale 依次读取 ?lang、X-Locale 与 Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return NormalizeLocale(lang)
	}
	if lang := strings.TrimSpace(c.GetHeader("X-Locale")); lang != "" {
		return NormalizeLocale(lang)
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return DefaultLocale
	}
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	return NormalizeLocale(first)
}

// T 翻译文案，缺失时回退默认语言，仍缺失则返回键本身
func T(locale, key string) string {
	if msg, ok := messages[NormalizeLocale(locale)][key]; ok {
		return msg
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译后按参数格式化
func Sprintf(locale, key string, args ...interface{}) string {
	msg := T(locale, key)
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}
