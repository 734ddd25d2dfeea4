package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"DocPlatform/internal/cli/model"
)

// maxUploadSize — предел multipart-формы загрузки.
const maxUploadSize = 32 << 20

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(WithGzip)
	r.Use(WithLogging(s.logger))
	r.Use(s.countHits)

	r.Route(BasePath, func(r chi.Router) {
		r.Post("/login/", s.login)
		r.Post("/signup/", s.signup)
		r.Post("/token/refresh/", s.refresh)
		r.HandleFunc("/echo/", s.echo)

		r.Group(func(r chi.Router) {
			r.Use(WithBearerAuth(s.tokens))
			r.Get("/userinfo/", s.userInfo)
			r.Get("/chatbot/session/", s.count("sessions_count", true))
			r.Get("/reports/report_count", s.count("report_count", false))
			r.Post("/companies/", s.createCompany)
			r.Get("/companies/company_count/", s.count("company_count", true))
			r.Get("/assets/analysiscount/", s.count("asset_count", false))
			r.Post("/upload-zip/", s.uploadZip)
		})
	})
	return r
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, BasePath)
		s.mu.Lock()
		s.hits[path]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, message string, data any) {
	body := map[string]any{"success": success, "message": message}
	if data != nil {
		body["data"] = data
	}
	writeJSON(w, status, body)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "invalid request body", nil)
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(u.password, []byte(req.Password)) != nil {
		writeEnvelope(w, http.StatusUnauthorized, false, "Invalid email or password", nil)
		return
	}
	pair, err := s.tokens.issue(u.email)
	if err != nil {
		s.logger.Errorw("issue tokens", "error", err)
		writeEnvelope(w, http.StatusInternalServerError, false, "internal error", nil)
		return
	}
	writeEnvelope(w, http.StatusOK, true, "Login successful", pair)
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, "invalid request body", nil)
		return
	}
	if req.Password != req.ConfirmPassword {
		writeEnvelope(w, http.StatusBadRequest, false, "Passwords do not match", nil)
		return
	}
	s.mu.Lock()
	_, taken := s.users[req.Email]
	s.mu.Unlock()
	if taken {
		writeEnvelope(w, http.StatusBadRequest, false, "User with this email already exists", nil)
		return
	}
	if err := s.AddUser(req.Name, req.Email, req.Password); err != nil {
		writeEnvelope(w, http.StatusInternalServerError, false, "internal error", nil)
		return
	}
	writeEnvelope(w, http.StatusCreated, true, "User registered successfully", nil)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.refreshCalls++
	status, delay := s.refreshStatus, s.refreshDelay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if status != 0 {
		writeJSON(w, status, map[string]string{"detail": "refresh failed"})
		return
	}

	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"refresh": []string{"This field is required."}})
		return
	}
	pair, err := s.tokens.rotate(req.Refresh)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) userInfo(w http.ResponseWriter, r *http.Request) {
	email, _ := userFromContext(r.Context())
	s.mu.Lock()
	u := s.users[email]
	s.mu.Unlock()
	writeEnvelope(w, http.StatusOK, true, "", model.UserInfo{Name: u.name, Email: email})
}

// count отвечает {data:{key:n}} или {key:n}: бэкенд использует оба формата.
func (s *Server) count(key string, enveloped bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		c := s.counts
		s.mu.Unlock()

		var n int
		switch key {
		case "sessions_count":
			n = c.ChatbotSessions
		case "report_count":
			n = c.ReportsGenerated
		case "company_count":
			n = c.CompaniesOnboarded
		case "asset_count":
			n = c.AssetAnalysisCount
		}
		if enveloped {
			writeEnvelope(w, http.StatusOK, true, "", map[string]int{key: n})
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{key: n})
	}
}

// createCompany отвечает как DRF: 201 с созданным объектом или 400 с
// ошибками по полям.
func (s *Server) createCompany(w http.ResponseWriter, r *http.Request) {
	var req model.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "JSON parse error"})
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"company_name": {"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if strings.EqualFold(c.CompanyName, req.CompanyName) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"company_name": {"company with this company name already exists."},
			})
			return
		}
	}
	c := model.Company{
		ID:          int64(len(s.companies) + 1),
		CompanyName: req.CompanyName,
		Sector:      req.Sector,
		Country:     req.Country,
		Status:      req.Status,
	}
	s.companies = append(s.companies, c)
	s.counts.CompaniesOnboarded++
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) uploadZip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil || !strings.EqualFold(filepath.Ext(header.Filename), ".zip") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Only ZIP files are supported."})
		return
	}
	defer file.Close()
	company := r.FormValue("company")
	if company == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Company ID is required."})
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable file"})
		return
	}

	email, _ := userFromContext(r.Context())
	s.mu.Lock()
	up := Upload{
		ID:        int64(len(s.uploads) + 1),
		CompanyID: company,
		Filename:  header.Filename,
		Size:      len(data),
		User:      email,
	}
	s.uploads = append(s.uploads, up)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, model.UploadResult{Success: true, Message: "Upload successful", ID: up.ID})
}

func (s *Server) echo(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	writeJSON(w, http.StatusOK, map[string]string{
		"method":        r.Method,
		"authorization": r.Header.Get("Authorization"),
		"request_id":    r.Header.Get("X-Request-ID"),
		"content_type":  r.Header.Get("Content-Type"),
		"body":          string(body),
	})
}
