package handlers

import "net/http"

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Chibi-Chitra</title>
  <style>
    body { font-family: sans-serif; margin: 0; background: #f3f4f6; }
    header { background: #4f46e5; color: #fff; padding: 1rem 2rem; }
    main { display: grid; grid-template-columns: repeat(3, 1fr); gap: 1rem; padding: 1rem; }
    section { background: #fff; border-radius: 8px; padding: 1rem; }
    h2 { border-bottom: 1px solid #e5e7eb; padding-bottom: .5rem; }
    label { display: block; margin-top: .75rem; font-size: .9rem; color: #374151; }
    input, button { margin-top: .25rem; width: 100%; padding: .5rem; box-sizing: border-box; }
    button { background: #4f46e5; color: #fff; border: 0; border-radius: 4px; cursor: pointer; }
    img { max-width: 100%; max-height: 320px; display: block; margin-top: 1rem; }
    table { width: 100%; border-collapse: collapse; font-size: .85rem; margin-top: .5rem; }
    th, td { text-align: left; padding: .35rem; border-bottom: 1px solid #e5e7eb; }
    .done { color: #15803d; font-weight: bold; }
    .pending { color: #a16207; font-weight: bold; }
    #message { margin-top: .75rem; color: #15803d; }
  </style>
</head>
<body>
  <header><h1>Chibi-Chitra</h1><p>Convert yourself into your favorite character</p></header>
  <main>
    <section>
      <h2>1. Upload Details</h2>
      <form id="uploadForm">
        <label>Your Photo <input type="file" name="image" accept="image/*" required></label>
        <label>Anime Style <input type="text" name="anime_name" placeholder="e.g. Naruto" required></label>
        <label>Email Address <input type="email" id="email" placeholder="you@example.com" required></label>
        <button type="submit">Generate Preview</button>
      </form>
    </section>
    <section>
      <h2>2. Review &amp; Refine</h2>
      <img id="preview" alt="" hidden>
      <button id="submitBtn" hidden>Submit for 3D</button>
      <p id="message"></p>
    </section>
    <section>
      <h2>3. Status Queue</h2>
      <button id="refreshBtn">Refresh Status</button>
      <table>
        <thead><tr><th>ID</th><th>Anime</th><th>Build</th><th>Mail</th></tr></thead>
        <tbody id="statusBody"></tbody>
      </table>
      <p style="font-size:.8rem;color:#6b7280">Showing last 5 submissions</p>
    </section>
  </main>
  <script>
    let current = null;

    async function refreshStatus() {
      const res = await fetch('/api/history?t=' + Date.now());
      const rows = await res.json();
      const body = document.getElementById('statusBody');
      body.innerHTML = '';
      rows.forEach(r => {
        const tr = document.createElement('tr');
        tr.innerHTML = '<td>#' + r.id + '</td><td>' + r.anime_name + '</td>' +
          '<td class="' + (r.build_status === 'Y' ? 'done' : 'pending') + '">' + r.build_status + '</td>' +
          '<td class="' + (r.mail_status === 'Y' ? 'done' : 'pending') + '">' + r.mail_status + '</td>';
        body.appendChild(tr);
      });
    }

    document.getElementById('uploadForm').addEventListener('submit', async e => {
      e.preventDefault();
      const res = await fetch('/upload_and_preview', { method: 'POST', body: new FormData(e.target) });
      const out = await res.json();
      if (out.status !== 'success') { alert(out.error || 'processing failed'); return; }
      current = { processed_file: out.processed_file, anime_name: out.anime_name,
                  email: document.getElementById('email').value };
      const img = document.getElementById('preview');
      img.src = '/static/processed/' + out.processed_file + '?t=' + Date.now();
      img.hidden = false;
      document.getElementById('submitBtn').hidden = false;
    });

    document.getElementById('submitBtn').addEventListener('click', async () => {
      if (!current) return;
      const res = await fetch('/submit_final', {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify(current)
      });
      const out = await res.json();
      if (out.status === 'success') {
        document.getElementById('message').textContent =
          'Success! Your ID is #' + out.id + '. Your character is queued for 3D generation. Check your email.';
        refreshStatus();
      } else {
        alert(out.error || 'submission failed');
      }
    });

    document.getElementById('refreshBtn').addEventListener('click', refreshStatus);
    refreshStatus();
  </script>
</body>
</html>`

// Index serves the single-page UI.
func (a *App) Index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}
