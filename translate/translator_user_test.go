package translate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freeai-utils/freeai-utils/translate"
)

func TestTranslatorFromUserCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[["Good morning","Chào buổi sáng",null,null,10]],null,"vi"]`))
	}))
	defer srv.Close()

	google := translate.NewGoogle()
	google.SetURL(srv.URL)
	tr, err := translate.NewTranslator(google, nil, translate.LocalInactive)
	require.NoError(t, err)

	got, err := tr.Translate(context.Background(), "Chào buổi sáng", "en")
	require.NoError(t, err)
	require.Equal(t, "Good morning", got)

	lang, _, err := tr.DetectLanguage("Đây là một đoạn văn bản mẫu bằng tiếng Việt.")
	require.NoError(t, err)
	require.Equal(t, "vi", lang)
}
