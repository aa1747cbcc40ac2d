package course

import (
	"strconv"
	"unicode/utf8"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/educa/core"
)

var (
	titleMaxLen = 200

	textContentTag  = "text_content"
	textContentText = "text items require a content"

	videoURLTag  = "video_url"
	videoURLText = "video items require a url"

	itemFileTag  = "item_file"
	itemFileText = "this item requires a file"

	unknownKindTag  = "item_kind"
	unknownKindText = "unknown item kind"
)

// InitValidators registers the course validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(moduleFormStructValidation, ModuleForm{})

	validate.RegisterStructValidation(newItemStructValidation, NewItem{})
	core.RegisterCustomTranslation(validate, translator, textContentTag, textContentText)
	core.RegisterCustomTranslation(validate, translator, videoURLTag, videoURLText)
	core.RegisterCustomTranslation(validate, translator, itemFileTag, itemFileText)
	core.RegisterCustomTranslation(validate, translator, unknownKindTag, unknownKindText)
}

// moduleFormStructValidation applies NewModule's rules to the forms which are not deleted.
func moduleFormStructValidation(sl validator.StructLevel) {
	mf, ok := sl.Current().Interface().(ModuleForm)
	if !ok || mf.Delete {
		return
	}
	if mf.Title == "" {
		sl.ReportError(mf.Title, "title", "Title", "required", "")
	} else if utf8.RuneCountInString(mf.Title) > titleMaxLen {
		sl.ReportError(mf.Title, "title", "Title", "max", strconv.Itoa(titleMaxLen))
	}
	if mf.Order.Valid && mf.Order.Int < 0 {
		sl.ReportError(mf.Order.Int, "order", "Order", "min", "0")
	}
}

// newItemStructValidation requires the payload field matching the item's Kind.
func newItemStructValidation(sl validator.StructLevel) {
	ni, ok := sl.Current().Interface().(NewItem)
	if !ok {
		return
	}
	switch ni.Kind {
	case KindText:
		if core.CleanString(ni.Content) == "" {
			sl.ReportError(ni.Content, "content", "Content", textContentTag, "")
		}
	case KindVideo:
		if ni.URL == "" {
			sl.ReportError(ni.URL, "url", "URL", videoURLTag, "")
		}
	case KindImage, KindFile:
		if ni.File == "" {
			sl.ReportError(ni.File, "file", "File", itemFileTag, "")
		}
	default:
		sl.ReportError(ni.Kind, "kind", "Kind", unknownKindTag, "")
	}
}
