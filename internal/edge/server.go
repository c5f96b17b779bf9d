package edge

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionKey = "backendSession"

type Server struct {
	backend  *Client
	sessions *Sessions
	pages    *template.Template
}

func NewServer(backend *Client, sessions *Sessions) (*Server, error) {
	pages, err := template.New("").Funcs(template.FuncMap{
		"answer": formatAnswer,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{backend: backend, sessions: sessions, pages: pages}, nil
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), requestID())
	router.SetHTMLTemplate(s.pages)

	router.GET("/", s.index)
	router.GET("/setup", s.page("setup.html"))
	router.POST("/setup", s.setup)
	router.GET("/login", s.page("login.html"))
	router.POST("/login", s.login)
	router.GET("/register", s.page("register.html"))
	router.POST("/register", s.register)
	router.GET("/logout", s.logout)

	authed := router.Group("/")
	authed.Use(s.requireSession())
	{
		authed.GET("/dashboard", s.dashboard)
		authed.GET("/quiz/new", s.newQuizForm)
		authed.POST("/quiz/new", s.createQuiz)
		authed.GET("/settings", s.settings)
		authed.POST("/settings/refresh-key", s.refreshKey)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(withRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// requireSession sends browsers without a valid cookie to the login page.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, ok := s.sessions.Read(c)
		if !ok {
			s.loginRequired(c)
			return
		}
		c.Set(sessionKey, sessionID)
		c.Next()
	}
}

func (s *Server) loginRequired(c *gin.Context) {
	s.sessions.Clear(c)
	if wantsJSON(c) || c.Request.Method != http.MethodGet {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not logged in"})
		return
	}
	c.Redirect(http.StatusFound, "/login")
	c.Abort()
}

func wantsJSON(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEJSON || strings.Contains(c.GetHeader("Accept"), binding.MIMEJSON)
}

// forward relays a backend reply unchanged.
func forward(c *gin.Context, resp *Response) {
	c.Data(resp.Status, "application/json", resp.Body)
}

// unavailable reports a backend that could not be reached.
func (s *Server) unavailable(c *gin.Context, page string, err error) {
	log.Printf("Backend request for %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	if wantsJSON(c) {
		c.JSON(http.StatusBadGateway, gin.H{"error": ErrBackendUnavailable.Error()})
		return
	}
	c.HTML(http.StatusBadGateway, page, gin.H{"Error": "The quiz service is unavailable. Please try again later."})
}

func (s *Server) page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, name, gin.H{})
	}
}

func (s *Server) index(c *gin.Context) {
	resp, err := s.backend.Get(c.Request.Context(), "/setup/status", "")
	if err != nil {
		s.unavailable(c, "error.html", err)
		return
	}

	var status struct {
		NeedsSetup bool `json:"needs_setup"`
	}
	if resp.Status != http.StatusOK || resp.Decode(&status) != nil {
		c.HTML(http.StatusBadGateway, "error.html", gin.H{"Error": resp.ErrorMessage()})
		return
	}

	switch {
	case status.NeedsSetup:
		c.Redirect(http.StatusFound, "/setup")
	case !s.hasSession(c):
		c.Redirect(http.StatusFound, "/login")
	default:
		c.Redirect(http.StatusFound, "/dashboard")
	}
}

func (s *Server) hasSession(c *gin.Context) bool {
	_, ok := s.sessions.Read(c)
	return ok
}

type credentials struct {
	Name     string `form:"name" json:"name,omitempty"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func bindCredentials(c *gin.Context) ([]byte, credentials, bool) {
	var creds credentials
	if err := c.ShouldBind(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, creds, false
	}
	body, err := json.Marshal(creds)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, creds, false
	}
	return body, creds, true
}

// authenticate posts credentials to a backend endpoint that starts a session
// and, on success, stores that session in the browser cookie.
func (s *Server) authenticate(c *gin.Context, path, page string, success int) {
	body, _, ok := bindCredentials(c)
	if !ok {
		return
	}

	resp, err := s.backend.Post(c.Request.Context(), path, body, "")
	if err != nil {
		s.unavailable(c, page, err)
		return
	}

	if resp.Status == success && resp.Session != "" {
		if err := s.sessions.Issue(c, resp.Session); err != nil {
			log.Printf("Failed to issue session cookie: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}

	s.respond(c, resp, success, page, "/dashboard")
}

// respond forwards the backend reply to JSON clients. Form posts are
// redirected on success or shown the page again with the backend's message.
func (s *Server) respond(c *gin.Context, resp *Response, success int, page, next string) {
	if wantsJSON(c) {
		forward(c, resp)
		return
	}
	if resp.Status == success {
		c.Redirect(http.StatusSeeOther, next)
		return
	}
	c.HTML(resp.Status, page, gin.H{"Error": resp.ErrorMessage()})
}

func (s *Server) setup(c *gin.Context) {
	s.authenticate(c, "/setup", "setup.html", http.StatusCreated)
}

func (s *Server) login(c *gin.Context) {
	s.authenticate(c, "/login", "login.html", http.StatusOK)
}

// register creates the account and then logs it in, so the browser lands on
// the dashboard with a session.
func (s *Server) register(c *gin.Context) {
	body, creds, ok := bindCredentials(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	resp, err := s.backend.Post(ctx, "/register", body, "")
	if err != nil {
		s.unavailable(c, "register.html", err)
		return
	}

	if resp.Status == http.StatusCreated {
		loginBody, _ := json.Marshal(credentials{Email: creds.Email, Password: creds.Password})
		loginResp, err := s.backend.Post(ctx, "/login", loginBody, "")
		if err != nil {
			s.unavailable(c, "register.html", err)
			return
		}
		if loginResp.Status == http.StatusOK && loginResp.Session != "" {
			if err := s.sessions.Issue(c, loginResp.Session); err != nil {
				log.Printf("Failed to issue session cookie: %v", err)
			}
		}
	}

	s.respond(c, resp, http.StatusCreated, "register.html", "/dashboard")
}

func (s *Server) logout(c *gin.Context) {
	if sessionID, ok := s.sessions.Read(c); ok {
		if _, err := s.backend.Get(c.Request.Context(), "/logout", sessionID); err != nil {
			log.Printf("Backend logout failed: %v", err)
		}
	}
	s.sessions.Clear(c)
	c.Redirect(http.StatusFound, "/login")
}

type quizView struct {
	ID           uint            `json:"id"`
	QuizType     string          `json:"quiz_type"`
	QuestionText string          `json:"question_text"`
	AnswerText   json.RawMessage `json:"answer_text"`
	ThemeName    *string         `json:"theme_name"`
	CreatedBy    string          `json:"created_by"`
}

type themeView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// formatAnswer shows string answers unquoted and anything else as JSON.
func formatAnswer(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

func (s *Server) dashboard(c *gin.Context) {
	sessionID := c.GetString(sessionKey)

	var mine, defaults *Response
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		var err error
		mine, err = s.backend.Get(ctx, "/quizzes", sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		defaults, err = s.backend.Get(ctx, "/quizzes/default", "")
		return err
	})
	if err := g.Wait(); err != nil {
		s.unavailable(c, "dashboard.html", err)
		return
	}

	if mine.Status == http.StatusUnauthorized {
		s.loginRequired(c)
		return
	}

	data := gin.H{}
	var quizzes, defaultQuizzes []quizView
	if mine.Status != http.StatusOK || mine.Decode(&quizzes) != nil {
		data["Error"] = "Failed to load your quizzes: " + mine.ErrorMessage()
	}
	if defaults.Status == http.StatusOK {
		if err := defaults.Decode(&defaultQuizzes); err != nil {
			log.Printf("Failed to decode default quizzes: %v", err)
		}
	}
	data["Quizzes"] = quizzes
	data["DefaultQuizzes"] = defaultQuizzes

	c.HTML(http.StatusOK, "dashboard.html", data)
}

func (s *Server) loadThemes(c *gin.Context) ([]themeView, error) {
	resp, err := s.backend.Get(c.Request.Context(), "/themes", "")
	if err != nil {
		return nil, err
	}
	var themes []themeView
	if resp.Status != http.StatusOK {
		return nil, errors.New(resp.ErrorMessage())
	}
	if err := resp.Decode(&themes); err != nil {
		return nil, err
	}
	return themes, nil
}

func (s *Server) newQuizForm(c *gin.Context) {
	themes, err := s.loadThemes(c)
	if errors.Is(err, ErrBackendUnavailable) {
		s.unavailable(c, "new_quiz.html", err)
		return
	}
	data := gin.H{"Themes": themes}
	if err != nil {
		data["Error"] = "Failed to load themes"
	}
	c.HTML(http.StatusOK, "new_quiz.html", data)
}

// quizBody is the JSON sent to the backend. JSON requests pass through as is;
// form posts are converted field by field.
func quizBody(c *gin.Context) ([]byte, error) {
	if c.ContentType() == binding.MIMEJSON {
		return c.GetRawData()
	}

	quizType := c.PostForm("quiz_type")
	fields := map[string]any{
		"quiz_type":     quizType,
		"question_text": c.PostForm("question_text"),
	}

	answer := c.PostForm("answer_text")
	if quizType == "multiple_choice" && json.Valid([]byte(answer)) {
		fields["answer_text"] = json.RawMessage(answer)
	} else if answer != "" {
		fields["answer_text"] = answer
	}

	if themeID := c.PostForm("theme_id"); themeID != "" {
		id, err := strconv.ParseUint(themeID, 10, 64)
		if err != nil {
			return nil, errors.New("invalid theme")
		}
		fields["theme_id"] = id
	}

	return json.Marshal(fields)
}

func (s *Server) createQuiz(c *gin.Context) {
	body, err := quizBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.backend.Post(c.Request.Context(), "/quizzes", body, c.GetString(sessionKey))
	if err != nil {
		s.unavailable(c, "new_quiz.html", err)
		return
	}
	if resp.Status == http.StatusUnauthorized {
		s.loginRequired(c)
		return
	}

	if wantsJSON(c) || resp.Status == http.StatusCreated {
		s.respond(c, resp, http.StatusCreated, "new_quiz.html", "/dashboard")
		return
	}

	themes, _ := s.loadThemes(c)
	c.HTML(resp.Status, "new_quiz.html", gin.H{"Themes": themes, "Error": resp.ErrorMessage()})
}

func (s *Server) settings(c *gin.Context) {
	resp, err := s.backend.Get(c.Request.Context(), "/me/api-key", c.GetString(sessionKey))
	if err != nil {
		s.unavailable(c, "settings.html", err)
		return
	}
	if resp.Status == http.StatusUnauthorized {
		s.loginRequired(c)
		return
	}

	var key struct {
		APIKey string `json:"api_key"`
	}
	if resp.Status != http.StatusOK || resp.Decode(&key) != nil {
		c.HTML(http.StatusOK, "settings.html", gin.H{"Error": "Failed to get API key"})
		return
	}
	c.HTML(http.StatusOK, "settings.html", gin.H{"APIKey": key.APIKey})
}

func (s *Server) refreshKey(c *gin.Context) {
	resp, err := s.backend.Post(c.Request.Context(), "/me/api-key/refresh", nil, c.GetString(sessionKey))
	if err != nil {
		s.unavailable(c, "settings.html", err)
		return
	}
	if resp.Status == http.StatusUnauthorized {
		s.loginRequired(c)
		return
	}
	s.respond(c, resp, http.StatusOK, "settings.html", "/settings")
}
