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
	"strconv"

	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"

	"pgedge-sales-analyst/internal/database"
	"pgedge-sales-analyst/internal/history"
)

// dashboardView carries everything one dashboard render needs
type dashboardView struct {
	Question  string
	SQL       string
	RawOutput string
	ErrorMsg  string
	Result    *database.Result
	History   []history.Entry
}

// historyDisplayLimit caps how many entries the panel shows; the log
// itself keeps everything for the life of the session
const historyDisplayLimit = 5

var exampleQuestions = []string{
	"What is the total revenue by region?",
	"Who are the top 10 customers by total spending?",
	"What are the monthly sales trends?",
	"Which products generate the most revenue?",
	"What is the average order value by product category?",
	"How many customers do we have by country?",
	"Which customers haven't ordered in the last 90 days?",
}

func renderHTML(w http.ResponseWriter, status int, node Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func (s *Server) render(w http.ResponseWriter, view dashboardView) {
	renderHTML(w, http.StatusOK, dashboardPage(view))
}

func pageHead(title string) Node {
	return Head(
		Meta(Charset("utf-8")),
		Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
		TitleEl(Text(title+" | pgEdge Sales Analyst")),
		StyleEl(Raw(appCSS)),
	)
}

func loginPage(errMsg string) Node {
	content := []Node{
		H1(Text("pgEdge Sales Analyst")),
		P(Class("muted"), Text("Sign in to query the sales database in plain English.")),
		Form(
			Method("post"),
			Action("/login"),
			Class("login-form"),
			Label(For("password"), Text("Password")),
			Input(
				Type("password"),
				ID("password"),
				Name("password"),
				Placeholder("Dashboard password"),
				Required(),
				AutoFocus(),
			),
			Button(Type("submit"), Class("btn btn-primary"), Text("Sign In")),
		),
		Div(Class("notice"),
			Strong(Text("Security Notice")),
			Ul(
				Li(Text("Passwords are protected using bcrypt hashing")),
				Li(Text("Your session is secure and isolated")),
				Li(Text("You stay signed in until the session expires or you sign out")),
			),
		),
	}
	if errMsg != "" {
		content = append([]Node{P(Class("error"), Text(errMsg))}, content...)
	}

	return HTML(
		Lang("en"),
		pageHead("Sign in"),
		Body(
			Class("login-body"),
			Main(Class("login-wrap"), Group(content)),
		),
	)
}

func dashboardPage(view dashboardView) Node {
	return HTML(
		Lang("en"),
		pageHead("Dashboard"),
		Body(
			Main(Class("app-shell"),
				sidebar(),
				Section(Class("app-main"),
					Div(Class("topbar"),
						H1(Class("page-title"), Text("Sales Analytics Assistant")),
						Form(
							Method("post"),
							Action("/logout"),
							Button(Type("submit"), Class("btn"), Text("Sign out")),
						),
					),
					Div(Class("content"),
						errorCard(view.ErrorMsg),
						questionCard(view.Question),
						rawOutputCard(view.RawOutput),
						sqlCard(view.Question, view.SQL),
						resultsCard(view.Result),
						historyCard(view.History),
					),
				),
			),
		),
	)
}

func sidebar() Node {
	examples := make([]Node, 0, len(exampleQuestions))
	for _, q := range exampleQuestions {
		examples = append(examples, Li(Text(q)))
	}

	return Aside(Class("app-sidebar"),
		Div(Class("brand"),
			Strong(Text("pgEdge Sales Analyst")),
			P(Class("muted"), Text("Natural language queries over the sales database")),
		),
		Div(Class("sidebar-section"),
			H3(Text("Example questions")),
			Ul(Class("examples"), Group(examples)),
		),
		Div(Class("sidebar-section"),
			H3(Text("How it works")),
			Ol(
				Li(Text("Enter your question in plain English")),
				Li(Text("Review the generated SQL")),
				Li(Text("Edit it if needed, then run it")),
			),
		),
	)
}

func errorCard(msg string) Node {
	if msg == "" {
		return nil
	}
	return Div(Class("card card-error"), P(Class("error"), Text(msg)))
}

func questionCard(question string) Node {
	return Div(Class("card"),
		H2(Text("What would you like to know?")),
		Form(
			Method("post"),
			Action("/generate"),
			Textarea(
				Name("question"),
				Rows("3"),
				Placeholder("e.g., What is the total revenue by region? or Who are the top 5 customers?"),
				Text(question),
			),
			Div(Class("button-row"),
				Button(Type("submit"), Class("btn btn-primary"), Text("Generate SQL")),
			),
		),
		Form(
			Method("post"),
			Action("/clear"),
			Button(Type("submit"), Class("btn"), Text("Clear History")),
		),
	)
}

// rawOutputCard shows the model's reply when no SQL could be extracted
func rawOutputCard(raw string) Node {
	if raw == "" {
		return nil
	}
	return Div(Class("card"),
		H2(Text("Model output")),
		Pre(Code(Text(raw))),
	)
}

func sqlCard(question, sql string) Node {
	if sql == "" {
		return nil
	}
	return Div(Class("card"),
		H2(Text("Generated SQL")),
		If(question != "", P(Class("muted"), Text("Question: "+question))),
		Form(
			Method("post"),
			Action("/run"),
			Input(Type("hidden"), Name("question"), Value(question)),
			Textarea(
				Name("sql"),
				Rows("8"),
				Class("sql-editor"),
				Text(sql),
			),
			Div(Class("button-row"),
				Button(Type("submit"), Class("btn btn-primary"), Text("Run Query")),
			),
		),
	)
}

func resultsCard(result *database.Result) Node {
	if result == nil {
		return nil
	}

	headers := make([]Node, 0, len(result.Columns))
	for _, col := range result.Columns {
		headers = append(headers, Th(Text(col)))
	}

	rows := make([]Node, 0, len(result.Rows))
	for _, row := range result.Rows {
		cells := make([]Node, 0, len(row))
		for _, value := range row {
			cells = append(cells, Td(Text(formatCell(value))))
		}
		rows = append(rows, Tr(Group(cells)))
	}

	summary := fmt.Sprintf("Query returned %d rows", result.RowCount())
	if result.RowCount() == 1 {
		summary = "Query returned 1 row"
	}

	return Div(Class("card"),
		H2(Text("Query Results")),
		P(Class("success"), Text(summary)),
		If(result.Truncated,
			P(Class("warning"), Text("Results were truncated at the row limit; refine the query or add a LIMIT clause."))),
		Div(Class("table-wrap"),
			Table(
				THead(Tr(Group(headers))),
				TBody(Group(rows)),
			),
		),
	)
}

func historyCard(entries []history.Entry) Node {
	if len(entries) == 0 {
		return nil
	}

	// Most recent first, capped for display
	shown := 0
	items := make([]Node, 0, historyDisplayLimit)
	for i := len(entries) - 1; i >= 0 && shown < historyDisplayLimit; i-- {
		entry := entries[i]
		items = append(items, historyItem(i, entry))
		shown++
	}

	return Div(Class("card"),
		H2(Text("Query History")),
		Group(items),
	)
}

func historyItem(index int, entry history.Entry) Node {
	label := fmt.Sprintf("Query %d: %s", index+1, truncateQuestion(entry.Question))

	detail := []Node{
		Summary(Text(label)),
		P(Strong(Text("Question: ")), Text(entry.Question)),
		Pre(Code(Text(entry.SQL))),
		P(Class("muted"), Text(entry.Summary())),
	}

	if entry.Err == "" {
		detail = append(detail,
			Form(
				Method("post"),
				Action("/rerun"),
				Input(Type("hidden"), Name("entry"), Value(strconv.Itoa(index))),
				Button(Type("submit"), Class("btn btn-sm"), Text("Re-run this query")),
			),
		)
	}

	return Details(Class("history-entry"), Group(detail))
}

func truncateQuestion(q string) string {
	const maxLen = 60
	if len(q) > maxLen {
		return q[:maxLen] + "..."
	}
	return q
}

const appCSS = `
:root { color-scheme: light dark; }
* { box-sizing: border-box; }
body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f6f8fa; color: #1f2328; }
.app-shell { display: flex; min-height: 100vh; }
.app-sidebar { width: 280px; padding: 1.5rem 1rem; background: #fff; border-right: 1px solid #d0d7de; }
.app-sidebar .brand strong { font-size: 1.1rem; }
.sidebar-section { margin-top: 1.5rem; }
.sidebar-section h3 { font-size: 0.85rem; text-transform: uppercase; letter-spacing: 0.03em; color: #57606a; }
.examples, .sidebar-section ol { padding-left: 1.2rem; font-size: 0.9rem; }
.examples li, .sidebar-section ol li { margin-bottom: 0.4rem; }
.app-main { flex: 1; padding: 1.5rem 2rem; max-width: 1100px; }
.topbar { display: flex; justify-content: space-between; align-items: center; margin-bottom: 1rem; }
.page-title { font-size: 1.4rem; margin: 0; }
.card { background: #fff; border: 1px solid #d0d7de; border-radius: 6px; padding: 1rem 1.25rem; margin-bottom: 1rem; }
.card h2 { font-size: 1.05rem; margin-top: 0; }
.card-error { border-color: #cf222e; }
textarea { width: 100%; font-size: 0.95rem; padding: 0.5rem; border: 1px solid #d0d7de; border-radius: 6px; resize: vertical; }
.sql-editor { font-family: ui-monospace, SFMono-Regular, Menlo, monospace; }
.button-row { margin-top: 0.6rem; }
.btn { padding: 0.4rem 0.9rem; border: 1px solid #d0d7de; border-radius: 6px; background: #f6f8fa; cursor: pointer; font-size: 0.9rem; }
.btn-primary { background: #1f883d; border-color: #1f883d; color: #fff; }
.btn-sm { padding: 0.25rem 0.6rem; font-size: 0.8rem; }
.error { color: #cf222e; margin: 0; }
.success { color: #1a7f37; }
.warning { color: #9a6700; }
.muted { color: #57606a; font-size: 0.9rem; }
.table-wrap { overflow-x: auto; }
table { border-collapse: collapse; width: 100%; font-size: 0.88rem; }
th, td { border: 1px solid #d0d7de; padding: 0.35rem 0.6rem; text-align: left; white-space: nowrap; }
th { background: #f6f8fa; }
pre { background: #f6f8fa; padding: 0.6rem; border-radius: 6px; overflow-x: auto; font-size: 0.85rem; }
.history-entry { border-top: 1px solid #d0d7de; padding: 0.5rem 0; }
.history-entry summary { cursor: pointer; font-weight: 500; }
.login-body { display: flex; align-items: center; justify-content: center; min-height: 100vh; }
.login-wrap { width: 340px; background: #fff; border: 1px solid #d0d7de; border-radius: 6px; padding: 2rem; }
.login-form { display: flex; flex-direction: column; gap: 0.6rem; margin-top: 1rem; }
.login-form input { padding: 0.5rem; border: 1px solid #d0d7de; border-radius: 6px; }
.notice { margin-top: 1.5rem; padding: 0.75rem 1rem; background: #ddf4ff; border: 1px solid #54aeff; border-radius: 6px; font-size: 0.85rem; }
.notice ul { margin: 0.4rem 0 0; padding-left: 1.2rem; }
`
