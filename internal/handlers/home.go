package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const homePage = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Swatantra AI Voice API</title>
    <style>
        :root {
            --primary-color: #4f46e5;
            --secondary-color: #0ea5e9;
            --text-light: #64748b;
            --border-color: #e2e8f0;
        }
        body {
            font-family: sans-serif;
            line-height: 1.6;
            color: #1e293b;
            max-width: 860px;
            margin: 0 auto;
            padding: 2rem;
        }
        h1 { color: var(--primary-color); }
        h2 {
            color: var(--secondary-color);
            margin-top: 2rem;
            border-bottom: 2px solid var(--border-color);
        }
        p { color: var(--text-light); }
        .endpoint {
            background: #f0f9ff;
            border-left: 6px solid var(--secondary-color);
            padding: 1rem 1.5rem;
            margin: 1rem 0;
            border-radius: 8px;
        }
        .method {
            font-weight: 600;
            background: var(--primary-color);
            color: white;
            padding: 0.2rem 0.6rem;
            border-radius: 6px;
            margin-right: 0.75rem;
        }
        .url { font-family: monospace; }
        pre {
            background: #f8fafc;
            border: 1px solid var(--border-color);
            border-radius: 8px;
            padding: 1rem;
            overflow: auto;
        }
        footer {
            margin-top: 3rem;
            border-top: 1px solid var(--border-color);
            padding-top: 1rem;
            text-align: center;
            color: var(--text-light);
            font-size: 0.9rem;
        }
    </style>
</head>
<body>
    <h1>Swatantra AI Voice API</h1>
    <p>Conversational voice interface relaying real-time audio between browser clients and an upstream AI voice service.</p>

    <h2>Endpoints</h2>
    <div class="endpoint">
        <span class="method">POST</span><span class="url">/api/v1/voice/start</span>
        <p>Starts a voice session. Body: <code>{"client_id": "..."}</code>. Returns the websocket URL to stream audio over.</p>
        <pre><code>{"status": "started", "client_id": "...", "session_id": "...", "websocket_url": "/ws/audio?client_id=..."}</code></pre>
    </div>
    <div class="endpoint">
        <span class="method">POST</span><span class="url">/api/v1/voice/terminate</span>
        <p>Terminates the client's session, delivering queued audio first.</p>
        <pre><code>{"status": "terminated", "client_id": "..."}</code></pre>
    </div>
    <div class="endpoint">
        <span class="method">GET</span><span class="url">/api/v1/voice/status?client_id=...</span>
        <p>Session state for one client, or an aggregate view without <code>client_id</code>.</p>
    </div>
    <div class="endpoint">
        <span class="method">GET</span><span class="url">/ws/audio?client_id=...</span>
        <p>Websocket audio stream. Send <code>{"type": "audio", "format": "audio/pcm", "data": &lt;base64 pcm16 mono 16kHz&gt;}</code>;
        receive <code>{"type": "audio", "format": "audio/wav", "data": &lt;base64&gt;, "seq": n}</code> chunks ready for playback.</p>
    </div>

    <h2>Documentation</h2>
    <p>Interactive API documentation lives at <a href="/swagger/index.html">/swagger/index.html</a>.</p>

    <footer>Made with &hearts; by petrioteer</footer>
</body>
</html>
`

// HomePage serves the API index page.
func HomePage(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, homePage)
}
