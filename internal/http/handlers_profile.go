package http

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"riel/internal/core"
	"riel/internal/store"
)

const maxAvatarBytes = 5 << 20 // 5 MiB

// handleProfile renders the profile page on GET and saves settings on
// POST. Saving merges submitted fields over the existing profile so a
// form without an avatar upload keeps the current image.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "profile.html", s.loadPageData(r, "profile"))
	case http.MethodPost:
		s.handleSaveProfile(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		if err := r.ParseForm(); err != nil {
			BadRequestError("Invalid request format").Write(w)
			return
		}
	}

	profile, err := s.store.GetProfile(r.Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.ErrorContext(r.Context(), "Load profile failed", "error", err)
		InternalServerError("Could not load profile").Write(w)
		return
	}

	profile.Username = sanitizeInput(r.Form.Get("username"))
	profile.DarkMode = r.Form.Get("dark_mode") != ""

	if v := strings.TrimSpace(r.Form.Get("preferred_currency")); v != "" {
		c, err := core.ParseCurrency(v)
		if err != nil {
			UnprocessableEntityError("Currency must be USD or KHR").Write(w)
			return
		}
		profile.PreferredCurrency = c
	}

	if file, header, err := r.FormFile("avatar"); err == nil {
		defer file.Close()
		path, err := s.saveAvatar(file, header)
		if err != nil {
			slog.ErrorContext(r.Context(), "Avatar upload failed", "error", err)
			UnprocessableEntityError("Could not save image").Write(w)
			return
		}
		profile.AvatarPath = path
	}

	if err := profile.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if _, err := s.ledger.SaveProfile(r.Context(), profile); err != nil {
		slog.ErrorContext(r.Context(), "Save profile failed", "error", err)
		InternalServerError("Could not save profile").
			TriggerErrorNotification("Could not save profile").
			Write(w)
		return
	}

	NewHTMXResponse().
		TriggerProfileUpdated().
		TriggerSuccessNotification("Profile saved").
		BodyHTML(`<div class="success">Profile saved</div>`).
		Write(w)
}

// saveAvatar stores an uploaded image under the avatar directory and
// returns its public URL path. Filenames are regenerated so uploads
// can never collide or traverse.
func (s *Server) saveAvatar(file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.avatarDir == "" {
		return "", errors.New("avatar directory not configured")
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", errors.New("unsupported image type")
	}

	if err := os.MkdirAll(s.avatarDir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.avatarDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, maxAvatarBytes)); err != nil {
		return "", err
	}
	return "/avatars/" + name, nil
}
