/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pgedge-sales-analyst/internal/auth"
	"pgedge-sales-analyst/internal/history"
	"pgedge-sales-analyst/internal/logging"
	"pgedge-sales-analyst/internal/metrics"
)

// LoginPage renders the login form. Already-authenticated browsers are
// sent straight to the dashboard.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		if _, ok := s.sessions.Get(cookie.Value); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	}
	renderHTML(w, http.StatusOK, loginPage(strings.TrimSpace(r.URL.Query().Get("error"))))
}

// LoginSubmit checks the password against the bcrypt hash and opens a
// session on success. The error message never says whether the password
// was close; a failed comparison and a malformed hash look the same.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/login?error=invalid+form", http.StatusSeeOther)
		return
	}

	password := r.Form.Get("password")
	if err := s.verifier.Verify(password); err != nil {
		metrics.ObserveLogin(false)
		logging.Warn("Failed login attempt", "remote", r.RemoteAddr)
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Incorrect password"), http.StatusSeeOther)
		return
	}

	session, err := s.sessions.Create()
	if err != nil {
		metrics.ObserveLogin(false)
		logging.Error("Failed to create session", "error", err.Error())
		http.Redirect(w, r, "/login?error="+url.QueryEscape("Internal error, try again"), http.StatusSeeOther)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.HTTP.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
		Expires:  session.Expires,
	})

	metrics.ObserveLogin(true)
	metrics.SetActiveSessions(s.sessions.Count())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout destroys the session and its history
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		s.sessions.Destroy(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.HTTP.TLS.Enabled,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	metrics.SetActiveSessions(s.sessions.Count())
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Dashboard renders the question form with the session's history
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	s.render(w, dashboardView{History: session.History.Entries()})
}

// Generate translates the question into SQL and shows it for review.
// Nothing is executed here; the user runs the statement explicitly.
func (s *Server) Generate(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.render(w, dashboardView{ErrorMsg: "Invalid form submission", History: session.History.Entries()})
		return
	}

	question := strings.TrimSpace(r.Form.Get("question"))
	view := dashboardView{
		Question: question,
		History:  session.History.Entries(),
	}

	if question == "" {
		view.ErrorMsg = "Enter a question first"
		s.render(w, view)
		return
	}

	startTime := time.Now()
	generated, err := s.translator.Translate(r.Context(), question, s.catalog.Context())
	elapsed := time.Since(startTime)

	if err != nil {
		metrics.ObserveTranslation(false, elapsed)
		if generated.RawOutput != "" {
			// Model replied but produced no SQL: show what it said
			view.ErrorMsg = "The model did not produce a SQL statement"
			view.RawOutput = generated.RawOutput
		} else {
			view.ErrorMsg = "Translation failed: " + err.Error()
		}
		logging.Warn("Translation failed", "error", err.Error())
		s.render(w, view)
		return
	}

	metrics.ObserveTranslation(true, elapsed)
	view.SQL = generated.SQL
	s.render(w, view)
}

// RunQuery executes the SQL from the review box, which the user may have
// edited, and records the outcome in the session history
func (s *Server) RunQuery(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.render(w, dashboardView{ErrorMsg: "Invalid form submission", History: session.History.Entries()})
		return
	}

	question := strings.TrimSpace(r.Form.Get("question"))
	sql := strings.TrimSpace(r.Form.Get("sql"))

	view := dashboardView{
		Question: question,
		SQL:      sql,
	}

	if sql == "" {
		view.ErrorMsg = "No SQL to run"
		view.History = session.History.Entries()
		s.render(w, view)
		return
	}

	s.execute(r, session, question, sql, &view)
	view.History = session.History.Entries()
	s.render(w, view)
}

// Rerun executes the SQL of a past history entry verbatim
func (s *Server) Rerun(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		s.render(w, dashboardView{ErrorMsg: "Invalid form submission", History: session.History.Entries()})
		return
	}

	index, err := strconv.Atoi(r.Form.Get("entry"))
	if err != nil {
		s.render(w, dashboardView{ErrorMsg: "Invalid history entry", History: session.History.Entries()})
		return
	}

	entry, ok := session.History.Get(index)
	if !ok {
		s.render(w, dashboardView{ErrorMsg: "History entry no longer exists", History: session.History.Entries()})
		return
	}

	view := dashboardView{
		Question: entry.Question,
		SQL:      entry.SQL,
	}

	s.execute(r, session, entry.Question, entry.SQL, &view)
	view.History = session.History.Entries()
	s.render(w, view)
}

// ClearHistory drops every entry from the session's history
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	session := auth.SessionFromContext(r.Context())
	session.History.Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// execute runs one statement, fills the view with the outcome, and appends
// a history entry. Failed executions are history too; only translation
// failures stay out of it.
func (s *Server) execute(r *http.Request, session *auth.Session, question, sql string, view *dashboardView) {
	result, err := s.executor.Execute(r.Context(), sql)

	entry := history.Entry{
		Question:  question,
		SQL:       sql,
		Timestamp: time.Now(),
	}

	if err != nil {
		metrics.ObserveQuery(false, 0)
		entry.Err = err.Error()
		view.ErrorMsg = "Query failed: " + err.Error()
		logging.Warn("Query execution failed", "error", err.Error())
	} else {
		metrics.ObserveQuery(true, result.Duration)
		entry.RowCount = result.RowCount()
		view.Result = result
	}

	session.History.Append(entry)
}

// formatCell converts a driver value to display text
func formatCell(value any) string {
	if value == nil {
		return "NULL"
	}
	switch v := value.(type) {
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", value)
	}
}
