package console

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/tracedeck/tracedeck/internal/view"
)

// handleConsolePage serves GET /traces/view?session={id} — the console page
// with the container view embedded as JSON for the client-side renderer.
func (s *Server) handleConsolePage(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "missing session query parameter", http.StatusBadRequest)
		return
	}
	session, ok := s.sessions.Get(id)
	if !ok {
		http.Error(w, fmt.Sprintf("session not found: %s", id), http.StatusNotFound)
		return
	}

	container := view.BuildContainer(session.Snapshot(), false)
	jsonBytes, err := json.Marshal(container)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type pageData struct {
		SessionID string
		JSONData  template.JS
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, pageData{
		SessionID: id,
		JSONData:  template.JS(jsonBytes),
	}); err != nil {
		s.logger.Error("failed to render console page", "error", err)
	}
}

const consolePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Trace Console</title>
<style>
  * { box-sizing: border-box; margin: 0; }
  body { font: 13px/1.5 -apple-system, "Segoe UI", sans-serif; background: #0f172a; color: #e2e8f0; }
  header { display: flex; align-items: center; gap: 12px; padding: 10px 16px; border-bottom: 1px solid #1e293b; }
  header h1 { font-size: 14px; font-weight: 600; }
  header .meta { color: #94a3b8; font-size: 12px; }
  #toolbar { margin-left: auto; display: flex; gap: 8px; }
  #toolbar button { background: #1e293b; color: #e2e8f0; border: 1px solid #334155; border-radius: 4px; padding: 4px 10px; cursor: pointer; }
  #toolbar button:hover { background: #334155; }
  main { display: grid; grid-template-columns: 280px 1fr 340px; height: calc(100vh - 45px); }
  main.no-inspector { grid-template-columns: 280px 1fr; }
  #hierarchy { border-right: 1px solid #1e293b; overflow-y: auto; padding: 8px 0; }
  .row { display: flex; align-items: center; gap: 6px; padding: 3px 12px; cursor: pointer; white-space: nowrap; }
  .row:hover { background: #1e293b; }
  .row.selected { background: #1d4ed8; }
  .row .badge { width: 8px; height: 8px; border-radius: 2px; flex: none; }
  .row .glyph { font-size: 11px; }
  .row .dur { margin-left: auto; color: #64748b; font-size: 11px; }
  #canvas { position: relative; overflow: hidden; }
  #canvas svg { width: 100%; height: 100%; }
  .node rect { fill: #1e293b; stroke-width: 2; rx: 6; }
  .node.selected rect { fill: #1d4ed8; }
  .node text { fill: #e2e8f0; font-size: 12px; }
  .edge { stroke: #475569; stroke-width: 1.5; fill: none; }
  .edge.hierarchical { stroke-dasharray: 4 3; }
  .edge.animated { animation: dash 1s linear infinite; }
  @keyframes dash { to { stroke-dashoffset: -14; } }
  #inspector { border-left: 1px solid #1e293b; overflow-y: auto; padding: 12px; }
  #inspector h2 { font-size: 13px; margin-bottom: 4px; }
  #inspector .sub { color: #94a3b8; font-size: 11px; margin-bottom: 10px; }
  #inspector .error { color: #f87171; background: #450a0a; border-radius: 4px; padding: 6px 8px; margin: 8px 0; }
  details { margin: 6px 0; }
  summary { cursor: pointer; color: #94a3b8; }
  pre { background: #020617; border-radius: 4px; padding: 8px; overflow-x: auto; font-size: 11px; }
  .state { display: grid; place-items: center; height: 100%; color: #64748b; }
</style>
</head>
<body>
<header>
  <h1>Trace Console</h1>
  <span class="meta" id="header-meta"></span>
  <div id="toolbar">
    <button data-action="layout">Flip layout</button>
    <button data-action="reset">Fit view</button>
    <button data-action="refresh">Refresh</button>
  </div>
</header>
<main>
  <div id="hierarchy"></div>
  <div id="canvas"></div>
  <div id="inspector"></div>
</main>
<script>
  const sessionId = "{{.SessionID}}";
  let container = {{.JSONData}};

  async function act(action, body) {
    const res = await fetch("/v1/sessions/" + sessionId + "/" + action, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(body || {})
    });
    if (res.ok) { container = await res.json(); render(); }
  }

  function renderHierarchy() {
    const el = document.getElementById("hierarchy");
    if (!container.hierarchy) { el.innerHTML = ""; return; }
    el.innerHTML = container.hierarchy.rows.map(r =>
      '<div class="row' + (r.selected ? ' selected' : '') + '" style="padding-left:' + (12 + r.indent) + 'px"' +
      ' data-id="' + escAttr(r.id) + '" data-root="' + r.isRoot + '" title="' + escAttr(r.fullName || r.name) + '">' +
      (r.hasChildren ? '<span class="glyph toggle" data-toggle="' + escAttr(r.id) + '">' + (r.collapsed ? '▸' : '▾') + '</span>' : '<span class="glyph"> </span>') +
      (r.typeColor ? '<span class="badge" style="background:' + r.typeColor + '"></span>' : '') +
      '<span>' + esc(r.name) + '</span>' +
      (r.statusGlyph ? '<span class="glyph" style="color:' + r.statusColor + '">' + r.statusGlyph + '</span>' : '') +
      (r.duration && r.duration !== '-' ? '<span class="dur">' + esc(r.duration) + '</span>' : '') +
      '</div>').join("");
    el.querySelectorAll(".toggle").forEach(t => t.onclick = e => {
      e.stopPropagation();
      act("collapse", { nodeId: t.dataset.toggle, view: "hierarchy" });
    });
    el.querySelectorAll(".row").forEach(row => row.onclick = () => {
      if (row.dataset.root === "true") act("select", { traceId: row.dataset.id });
      else act("select", { nodeId: row.dataset.id });
    });
  }

  function renderCanvas() {
    const el = document.getElementById("canvas");
    const cv = container.canvas;
    if (!cv) { el.innerHTML = ""; return; }
    const vp = cv.viewport;
    let svg = '<svg><g transform="translate(' + vp.x + ',' + vp.y + ') scale(' + vp.zoom + ')">';
    const byId = {};
    cv.nodes.forEach(n => byId[n.id] = n);
    cv.edges.forEach(e => {
      const a = byId[e.source], b = byId[e.target];
      if (!a || !b) return;
      svg += '<path class="edge ' + e.kind + (e.animated ? ' animated' : '') + '" d="M' +
        (a.x + a.width / 2) + ',' + (a.y + a.height / 2) + ' L' +
        (b.x + b.width / 2) + ',' + (b.y + b.height / 2) + '"/>';
    });
    cv.nodes.forEach(n => {
      svg += '<g class="node' + (n.selected ? ' selected' : '') + '" data-id="' + escAttr(n.id) + '">' +
        '<rect x="' + n.x + '" y="' + n.y + '" width="' + n.width + '" height="' + n.height + '" style="stroke:' + n.statusColor + '"/>' +
        '<text x="' + (n.x + 10) + '" y="' + (n.y + 26) + '">' + esc(n.name) + '</text>' +
        '<text x="' + (n.x + 10) + '" y="' + (n.y + 46) + '" style="fill:' + n.typeColor + ';font-size:10px">' + esc(n.type) +
        (n.hasChildren ? (n.collapsed ? ' ▸' : ' ▾') : '') + '</text></g>';
    });
    svg += '</g></svg>';
    el.innerHTML = svg;
    el.querySelectorAll(".node").forEach(g => g.onclick = e => {
      e.stopPropagation();
      act("select", { nodeId: g.dataset.id });
    });
    el.querySelector("svg").onclick = () => act("select", {});
    el.querySelectorAll(".node").forEach(g => g.ondblclick = e => {
      e.stopPropagation();
      act("collapse", { nodeId: g.dataset.id, view: "canvas" });
    });
  }

  function section(s) {
    return '<details' + (s.defaultCollapsed ? '' : ' open') + '><summary>' + s.label + '</summary><pre>' + esc(s.json) + '</pre></details>';
  }
  // Trace-supplied strings (names, types, ids) are untrusted; esc guards
  // element content, escAttr guards attribute values (quotes included).
  function esc(t) { const d = document.createElement("div"); d.textContent = t; return d.innerHTML; }
  function escAttr(t) {
    return String(t).replace(/&/g, "&amp;").replace(/</g, "&lt;").replace(/>/g, "&gt;").replace(/"/g, "&quot;").replace(/'/g, "&#39;");
  }

  function renderInspector() {
    const el = document.getElementById("inspector");
    const ins = container.inspector;
    if (!ins) { el.innerHTML = ""; return; }
    let html = '<h2>' + esc(ins.title) + '</h2><div class="sub">' + esc(ins.subtitle || '') + '</div>';
    if (ins.error) html += '<div class="error">' + esc(ins.error) + '</div>';
    const payload = p => {
      let out = '';
      if (p.text) out += '<pre>' + esc(p.text) + '</pre>';
      (p.sections || []).forEach(s => out += section(s));
      if (p.raw) out += section(p.raw);
      return out;
    };
    if (ins.input) html += '<h2>Input</h2>' + payload(ins.input);
    if (ins.output) html += '<h2>Output</h2>' + payload(ins.output);
    if (ins.metadata) html += section(ins.metadata);
    (ins.logs || []).forEach(l => html += l.text ? '<pre>' + esc(l.text) + '</pre>' : '<pre>' + esc(l.json) + '</pre>');
    el.innerHTML = html;
  }

  function render() {
    const meta = document.getElementById("header-meta");
    if (container.error) meta.textContent = "error: " + container.error;
    else if (container.empty) meta.textContent = "no traces yet";
    else if (container.header) meta.textContent = container.header.referenceName + " · " + container.header.nodeCount + " nodes";
    document.querySelector("main").classList.toggle("no-inspector", !container.inspector);
    if (container.empty || container.error && !container.header) {
      document.getElementById("canvas").innerHTML = '<div class="state">' + (container.error || "No traces to display") + '</div>';
      document.getElementById("hierarchy").innerHTML = "";
      document.getElementById("inspector").innerHTML = "";
      return;
    }
    renderHierarchy();
    renderCanvas();
    renderInspector();
  }

  document.querySelectorAll("#toolbar button").forEach(b => b.onclick = () => {
    if (b.dataset.action === "layout") {
      const next = container.toolbar.layoutDirection === "horizontal" ? "vertical" : "horizontal";
      act("layout", { direction: next });
    } else {
      act(b.dataset.action);
    }
  });

  const events = new EventSource("/v1/sessions/" + sessionId + "/events");
  events.onmessage = () => {};
  ["selection", "collapse", "layout", "view", "refresh"].forEach(type =>
    events.addEventListener(type, async () => {
      const res = await fetch("/v1/sessions/" + sessionId);
      if (res.ok) { container = await res.json(); render(); }
    }));
  events.addEventListener("session_closed", () => events.close());

  render();
</script>
</body>
</html>`
