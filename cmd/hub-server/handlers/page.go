package handlers

import (
	"fmt"
	"html"
	"net/http"
	"os"

	"github.com/flowai-hub/flowai-hub/internal/outcome"
)

const defaultIdentityJSURL = "https://cdn.jsdelivr.net/npm/@supabase/supabase-js@2/dist/umd/supabase.min.js"

// PageHandler renders the marketing/login/dashboard page. The connect outcome
// is read from the URL exactly once per request; the rendered page replaces
// the URL with the outcome parameters stripped so a refresh cannot replay the
// banner.
type PageHandler struct {
	identityURL   string
	identityKey   string
	identityJSURL string
	sessionCookie string
}

// NewPageHandlerFromEnv creates the page handler from identity backend
// configuration.
func NewPageHandlerFromEnv() *PageHandler {
	jsURL := os.Getenv("IDENTITY_JS_URL")
	if jsURL == "" {
		jsURL = defaultIdentityJSURL
	}
	sessionCookie := os.Getenv("IDENTITY_SESSION_COOKIE")
	if sessionCookie == "" {
		sessionCookie = "sb-access-token"
	}
	return &PageHandler{
		identityURL:   os.Getenv("IDENTITY_URL"),
		identityKey:   os.Getenv("IDENTITY_PUBLISHABLE_KEY"),
		identityJSURL: jsURL,
		sessionCookie: sessionCookie,
	}
}

// HandleHome serves the application root.
func (h *PageHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	banner := ""
	if o, ok := outcome.Parse(r.URL.Query()); ok {
		banner = renderBanner(o)
	}
	scrubbedURL := outcome.Strip(r.URL)

	page := fmt.Sprintf(pageTemplate,
		banner,
		h.identityJSURL,
		h.identityURL,
		h.identityKey,
		h.sessionCookie,
		scrubbedURL,
	)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

func renderBanner(o outcome.Outcome) string {
	if o.Status == outcome.StatusConnected {
		detail := ""
		if o.Team != "" {
			detail = fmt.Sprintf(" (%s)", html.EscapeString(o.Team))
		}
		return fmt.Sprintf(`<div class="banner banner-ok">%s connected%s</div>`,
			html.EscapeString(providerLabel(o.Provider)), detail)
	}

	message := o.Message
	if message == "" {
		message = "something went wrong"
	}
	return fmt.Sprintf(`<div class="banner banner-err">Could not connect %s: %s</div>`,
		html.EscapeString(providerLabel(o.Provider)), html.EscapeString(message))
}

func providerLabel(key string) string {
	switch key {
	case "slack":
		return "Slack"
	case "zoom":
		return "Zoom"
	}
	return key
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>FlowAI Hub</title>
  <style>
    body { font-family: system-ui, sans-serif; background:#f9fafb; color:#111827; margin:0; padding:64px 24px; }
    .wrap { max-width:720px; margin:0 auto; text-align:center; }
    h1 { font-size:44px; margin:0 0 16px; }
    .tagline { font-size:20px; color:#374151; margin:0 0 40px; }
    .card { background:#fff; border-radius:12px; box-shadow:0 10px 25px rgba(0,0,0,0.08); padding:32px; max-width:420px; margin:0 auto; text-align:left; }
    input { width:100%%; padding:12px; margin-bottom:16px; border:1px solid #d1d5db; border-radius:8px; box-sizing:border-box; }
    button { padding:12px 24px; border:none; border-radius:8px; cursor:pointer; font-size:15px; }
    button:disabled { opacity:.5; }
    .btn-primary { background:#2563eb; color:#fff; }
    .btn-secondary { background:#16a34a; color:#fff; }
    .btn-danger { background:#dc2626; color:#fff; }
    .btn-connect { width:100%%; background:#4f46e5; color:#fff; margin-bottom:12px; display:block; text-align:center; text-decoration:none; padding:12px 0; border-radius:8px; }
    .banner { max-width:420px; margin:0 auto 24px; padding:14px 18px; border-radius:8px; font-size:15px; }
    .banner-ok { background:#dcfce7; color:#166534; }
    .banner-err { background:#fee2e2; color:#991b1b; }
    .hidden { display:none; }
    .connected-tag { color:#16a34a; font-size:13px; margin-left:8px; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>FlowAI Hub</h1>
    <p class="tagline">Turn Zoom meetings into approved tasks, inside Slack, with hybrid AI oversight.</p>

    %s

    <div id="signed-out" class="card hidden">
      <h2>Get Started</h2>
      <input id="email" type="email" placeholder="Email" />
      <input id="password" type="password" placeholder="Password" />
      <div>
        <button id="signup" class="btn-primary">Sign Up</button>
        <button id="signin" class="btn-secondary">Sign In</button>
      </div>
      <p id="auth-status"></p>
    </div>

    <div id="signed-in" class="card hidden">
      <h2>Welcome back!</h2>
      <p>Logged in as: <span id="user-email"></span></p>
      <button id="signout" class="btn-danger">Sign Out</button>
      <h3>Next steps</h3>
      <a class="btn-connect" href="/connect/slack">Connect Slack<span id="slack-connected" class="connected-tag hidden">connected</span></a>
      <a class="btn-connect" href="/connect/zoom">Connect Zoom<span id="zoom-connected" class="connected-tag hidden">connected</span></a>
      <p style="font-size:13px;color:#6b7280;">Once connected, run a test Zoom meeting and watch tasks appear in Slack.</p>
    </div>
  </div>

  <script src="%s"></script>
  <script>
    const identity = supabase.createClient(%q, %q);
    const sessionCookie = %q;
    const scrubbedUrl = %q;

    // The outcome banner was rendered server-side from this URL. Replace the
    // URL once so a refresh cannot replay it.
    let reconciled = false;
    function scrubOutcome() {
      if (reconciled) {
        return;
      }
      reconciled = true;
      history.replaceState(null, '', scrubbedUrl);
    }
    scrubOutcome();

    function setSessionCookie(session) {
      if (session) {
        document.cookie = sessionCookie + '=' + session.access_token + '; path=/; SameSite=Lax';
      } else {
        document.cookie = sessionCookie + '=; path=/; Max-Age=0';
      }
    }

    function render(session) {
      document.getElementById('signed-out').classList.toggle('hidden', !!session);
      document.getElementById('signed-in').classList.toggle('hidden', !session);
      if (session) {
        document.getElementById('user-email').textContent = session.user.email || 'User';
        loadConnections(session);
      }
    }

    async function loadConnections(session) {
      const res = await fetch('/api/connections', {
        headers: { 'Authorization': 'Bearer ' + session.access_token }
      }).catch(() => null);
      if (!res || !res.ok) {
        return;
      }
      const data = await res.json();
      for (const conn of data.connections || []) {
        const tag = document.getElementById(conn.provider + '-connected');
        if (tag) {
          tag.classList.remove('hidden');
        }
      }
    }

    // Session notifications are the sole source of truth for session state;
    // the subscription is released exactly once when the page goes away.
    const { data: listener } = identity.auth.onAuthStateChange((_event, session) => {
      setSessionCookie(session);
      render(session);
    });

    let unsubscribed = false;
    window.addEventListener('pagehide', () => {
      if (unsubscribed) {
        return;
      }
      unsubscribed = true;
      listener.subscription.unsubscribe();
    });

    identity.auth.getSession().then(({ data: { session } }) => {
      setSessionCookie(session);
      render(session);
    });

    const statusEl = document.getElementById('auth-status');
    document.getElementById('signup').addEventListener('click', async () => {
      const { error } = await identity.auth.signUp({
        email: document.getElementById('email').value,
        password: document.getElementById('password').value
      });
      statusEl.textContent = error ? error.message : 'Check your email for confirmation!';
    });
    document.getElementById('signin').addEventListener('click', async () => {
      const { error } = await identity.auth.signInWithPassword({
        email: document.getElementById('email').value,
        password: document.getElementById('password').value
      });
      statusEl.textContent = error ? error.message : '';
    });
    document.getElementById('signout').addEventListener('click', async () => {
      await identity.auth.signOut();
    });
  </script>
</body>
</html>`
