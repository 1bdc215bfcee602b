// Package translate определяет язык текста и переводит его через Google или локальную модель.
package translate

import (
	"github.com/abadojack/whatlanggo"

	"github.com/freeai-utils/freeai-utils/guard"
)

// Detection язык (ISO 639-1, если есть, иначе 639-3) и уверенность 0..1.
type Detection struct {
	Lang       string
	Confidence float64
}

func code(l whatlanggo.Lang) string {
	if c := l.Iso6391(); c != "" {
		return c
	}
	return l.Iso6393()
}

// Detect определяет наиболее вероятный язык.
func Detect(text string) (Detection, error) {
	if err := guard.NotEmpty("text", text); err != nil {
		return Detection{}, err
	}
	info := whatlanggo.Detect(text)
	return Detection{Lang: code(info.Lang), Confidence: info.Confidence}, nil
}

// DetectAll возвращает до n кандидатов в порядке убывания вероятности.
func DetectAll(text string, n int) ([]Detection, error) {
	if err := guard.NotEmpty("text", text); err != nil {
		return nil, err
	}
	if err := guard.Positive("n", n); err != nil {
		return nil, err
	}

	opts := whatlanggo.Options{Blacklist: map[whatlanggo.Lang]bool{}}
	var out []Detection
	for len(out) < n {
		info := whatlanggo.DetectWithOptions(text, opts)
		if info.Script == nil || opts.Blacklist[info.Lang] || (len(out) > 0 && info.Confidence <= 0) {
			break
		}
		out = append(out, Detection{Lang: code(info.Lang), Confidence: info.Confidence})
		opts.Blacklist[info.Lang] = true
	}
	return out, nil
}
