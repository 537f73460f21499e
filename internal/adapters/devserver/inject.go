package devserver

import (
	"bytes"
	"fmt"

	"go.trai.ch/gild/internal/core/domain"
)

// clientScriptPath serves the livereload client.
const clientScriptPath = domain.LiveReloadPath + ".js"

// clientScript reloads stylesheets in place when only CSS changed and the page otherwise.
var clientScript = fmt.Sprintf(`(function () {
  var source = new EventSource(%q);
  source.addEventListener("reload", function (e) {
    var paths = JSON.parse(e.data).paths || [];
    var cssOnly = paths.length > 0 && paths.every(function (p) { return /\.css$/.test(p); });
    if (!cssOnly) {
      window.location.reload();
      return;
    }
    document.querySelectorAll('link[rel="stylesheet"]').forEach(function (link) {
      var url = new URL(link.href);
      url.searchParams.set("livereload", Date.now());
      link.href = url.toString();
    });
  });
})();
`, domain.LiveReloadPath)

var (
	scriptTag = []byte(`<script src="` + clientScriptPath + `"></script>`)
	bodyClose = []byte("</body>")
)

// injectClient inserts the client script tag before the last </body>,
// or appends it when the document has none.
func injectClient(html []byte) []byte {
	i := bytes.LastIndex(bytes.ToLower(html), bodyClose)
	if i < 0 {
		return append(bytes.Clone(html), scriptTag...)
	}
	out := make([]byte, 0, len(html)+len(scriptTag))
	out = append(out, html[:i]...)
	out = append(out, scriptTag...)
	return append(out, html[i:]...)
}
