package httpapi

import (
	"cmp"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/localesync/pkg/locale"
	"github.com/dmitrymomot/localesync/pkg/logger"
	"github.com/dmitrymomot/localesync/pkg/pagecontent"
	"github.com/dmitrymomot/localesync/pkg/pathcodec"
	"github.com/dmitrymomot/localesync/pkg/rebuild"
	"github.com/dmitrymomot/localesync/pkg/store"
)

// Bundle sources.
const (
	SourceStore   = "store"
	SourceDefault = "default"
)

type localeResponse struct {
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
	Content   pathcodec.Document `json:"content"`
	Language  string             `json:"lang"`
	Source    string             `json:"source"`
}

// bundles returns one entry per requested language: the stored bundle, or
// the compiled default when the store has none or cannot be reached.
func (a *API) bundles(r *http.Request, languages ...string) []localeResponse {
	ctx := r.Context()
	stored, err := a.backend.Bundles().Bundles(ctx, languages...)
	if err != nil {
		a.log.WarnContext(ctx, "serving compiled defaults", slog.Any("error", err))
	}

	out := make([]localeResponse, 0, len(languages))
	for _, lang := range languages {
		i := slices.IndexFunc(stored, func(b store.Bundle) bool { return b.Language == lang })
		if i >= 0 {
			if doc, err := stored[i].Decode(); err == nil {
				updated := stored[i].UpdatedAt
				out = append(out, localeResponse{Language: lang, Content: doc, UpdatedAt: &updated, Source: SourceStore})
				continue
			}
		}
		doc, ok := a.backend.Defaults(lang)
		if !ok {
			doc = pathcodec.Document{}
		}
		out = append(out, localeResponse{Language: lang, Content: doc, Source: SourceDefault})
	}
	return out
}

func (a *API) listLocales(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, a.bundles(r, a.backend.Languages()...))
	return nil
}

func (a *API) getLocale(w http.ResponseWriter, r *http.Request) error {
	lang := chi.URLParam(r, "lang")
	if err := a.language(lang); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, a.bundles(r, lang)[0])
	return nil
}

func (a *API) listContent(w http.ResponseWriter, r *http.Request) error {
	lang := r.URL.Query().Get("language")
	if lang != "" {
		if err := a.language(lang); err != nil {
			return err
		}
	}
	rows, err := a.backend.Content().Rows(r.Context(), lang)
	if err != nil {
		return err
	}
	if page := r.URL.Query().Get("page"); page != "" {
		rows = slices.DeleteFunc(rows, func(row store.Row) bool { return row.Page != page })
	}
	slices.SortFunc(rows, func(x, y store.Row) int { return cmp.Compare(x.Key(), y.Key()) })
	if rows == nil {
		rows = []store.Row{}
	}
	writeJSON(w, http.StatusOK, rows)
	return nil
}

type contentRequest struct {
	Page     string          `json:"page"`
	Section  string          `json:"section"`
	Language string          `json:"language"`
	Content  json.RawMessage `json:"content"`
}

func (a *API) putContent(w http.ResponseWriter, r *http.Request) error {
	var req contentRequest
	if err := a.decode(w, r, &req); err != nil {
		return err
	}
	if err := store.ValidateKey(req.Page, req.Section, req.Language); err != nil {
		return err
	}
	if err := a.language(req.Language); err != nil {
		return err
	}
	if len(req.Content) == 0 {
		return errBadRequest("content is required", nil)
	}

	ctx := logger.WithLanguage(r.Context(), req.Language)
	if err := a.backend.Pages().Save(ctx, req.Page, req.Section, req.Language, req.Content); err != nil {
		return err
	}
	sections, _ := a.backend.Pages().Load(ctx, req.Page, req.Language)

	a.log.InfoContext(ctx, "content saved", slog.String("page", req.Page), slog.String("section", req.Section))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"page":     req.Page,
		"section":  req.Section,
		"language": req.Language,
		"content":  sections[req.Section],
	})
	return nil
}

func (a *API) deleteContent(w http.ResponseWriter, r *http.Request) error {
	lang, page, section := chi.URLParam(r, "lang"), chi.URLParam(r, "page"), chi.URLParam(r, "section")
	if err := store.ValidateKey(page, section, lang); err != nil {
		return err
	}
	if err := a.language(lang); err != nil {
		return err
	}
	if err := a.backend.Pages().Delete(logger.WithLanguage(r.Context(), lang), page, section, lang); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

type pageResponse struct {
	Sections pagecontent.Sections `json:"sections"`
	Page     string               `json:"page"`
	Language string               `json:"language"`
	Degraded bool                 `json:"degraded,omitempty"`
}

func (a *API) getPage(w http.ResponseWriter, r *http.Request) error {
	page := chi.URLParam(r, "page")
	lang := a.requestLanguage(r)
	if err := a.language(lang); err != nil {
		return err
	}
	sections, err := a.backend.Pages().Load(r.Context(), page, lang)
	if err != nil && !errors.Is(err, store.ErrStoreUnavailable) {
		return err
	}
	writeJSON(w, http.StatusOK, pageResponse{Page: page, Language: lang, Sections: sections, Degraded: err != nil})
	return nil
}

type rebuildResponse struct {
	Results map[string]rebuild.Result `json:"results,omitempty"`
	Errors  map[string]string         `json:"errors,omitempty"`
	Message string                    `json:"message,omitempty"`
	Error   string                    `json:"error,omitempty"`
	Success bool                      `json:"success"`
}

func (a *API) rebuild(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	lang := r.URL.Query().Get("language")
	if lang != "" {
		if err := a.language(lang); err != nil {
			return err
		}
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if a.queue == nil {
			return errBadRequest("background rebuilds are not enabled", nil)
		}
		if err := a.queue.Enqueue(ctx, lang); err != nil {
			return err
		}
		writeJSON(w, http.StatusAccepted, rebuildResponse{Success: true, Message: "Site locales rebuild queued"})
		return nil
	}

	var report rebuild.Report
	if lang != "" {
		report = rebuild.Report{Results: map[string]rebuild.Result{}, Errors: map[string]error{}}
		if res, err := a.backend.Rebuild(ctx, lang); err != nil {
			report.Errors[lang] = err
		} else {
			report.Results[lang] = res
		}
	} else {
		report = a.backend.RebuildAll(ctx)
	}

	resp := rebuildResponse{Results: report.Results, Success: len(report.Errors) == 0}
	if resp.Success {
		resp.Message = "Site locales rebuilt successfully"
		writeJSON(w, http.StatusOK, resp)
		return nil
	}

	resp.Errors = make(map[string]string, len(report.Errors))
	for l, err := range report.Errors {
		resp.Errors[l] = err.Error()
	}
	resp.Error = report.Err().Error()
	a.log.ErrorContext(ctx, "rebuild failed", slog.Any("error", report.Err()))
	writeJSON(w, http.StatusInternalServerError, resp)
	return nil
}

type lookupResponse struct {
	Value    any    `json:"value"`
	Path     string `json:"path"`
	Language string `json:"language"`
	Found    bool   `json:"found"`
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) error {
	path := r.URL.Query().Get("path")
	if _, err := pathcodec.Split(path); err != nil {
		return errBadRequest("invalid path", err)
	}
	lang := a.requestLanguage(r)
	if err := a.language(lang); err != nil {
		return err
	}
	value, found := a.backend.Resolve(path, lang)
	writeJSON(w, http.StatusOK, lookupResponse{
		Path:     path,
		Language: lang,
		Value:    value,
		Found:    found,
	})
	return nil
}

// requestLanguage reads ?lang= or ?language=, then negotiates from
// Accept-Language.
func (a *API) requestLanguage(r *http.Request) string {
	q := r.URL.Query()
	if lang := cmp.Or(q.Get("lang"), q.Get("language")); lang != "" {
		return lang
	}
	return locale.ParseAcceptLanguage(r.Header.Get("Accept-Language"), a.backend.Languages())
}
