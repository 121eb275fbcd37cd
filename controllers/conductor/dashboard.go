package conductor

import (
	"github.com/gofiber/fiber/v2"
)

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Conductor Dashboard</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; background: #f4f5f7; }
        header { background: #667eea; color: white; padding: 16px 24px; }
        main { padding: 24px; max-width: 960px; margin: 0 auto; }
        section { background: white; border-radius: 8px; padding: 20px; margin-bottom: 20px;
                  box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
        textarea { width: 100%; min-height: 80px; }
        button { padding: 10px 20px; background: #667eea; color: white; border: none;
                 border-radius: 4px; cursor: pointer; }
        button:hover { background: #764ba2; }
        pre { background: #f0f0f0; padding: 12px; overflow: auto; }
    </style>
</head>
<body>
    <header><h1>🚌 Conductor Dashboard</h1></header>
    <main>
        <section>
            <h2>Send broadcast</h2>
            <textarea id="message" placeholder="Message to all opted-in passengers"></textarea>
            <p>
                <button onclick="send('/conductor/send-message')">Send with stop menu</button>
                <button onclick="send('/conductor/send-custom')">Send custom</button>
            </p>
        </section>
        <section>
            <h2>Statistics</h2>
            <pre id="stats">loading...</pre>
        </section>
        <section>
            <h2>Latest responses</h2>
            <pre id="responses">loading...</pre>
        </section>
    </main>
    <script>
        async function refresh() {
            const stats = await fetch('/conductor/api/stats').then(r => r.json());
            document.getElementById('stats').textContent = JSON.stringify(stats, null, 2);
            const responses = await fetch('/conductor/responses').then(r => r.json());
            document.getElementById('responses').textContent = JSON.stringify(responses, null, 2);
        }
        async function send(url) {
            const message = document.getElementById('message').value;
            const res = await fetch(url, {
                method: 'POST',
                headers: {'Content-Type': 'application/json'},
                body: JSON.stringify({message})
            });
            alert(JSON.stringify(await res.json()));
            refresh();
        }
        refresh();
    </script>
</body>
</html>`

// Dashboard serves the conductor control panel page.
func (cc *Controller) Dashboard(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(dashboardHTML)
}
