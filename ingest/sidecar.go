package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SidecarWriter emits a metadata sidecar file next to one copied
// media file. Failures are recorded on the entry and never affect
// safe_to_format.
type SidecarWriter interface {
	Write(projectRoot, dstRel string, patch XMPPatch) (sidecarPath string, err error)
}

// xmpSidecarWriter is the default SidecarWriter: a minimal XMP packet
// carrying the patch fields, written as "<media file>.xmp" beside the
// destination file. Real DAM tools embed this in-file; writing a
// sidecar keeps the core free of per-format embedding logic.
type xmpSidecarWriter struct{}

// NewDefaultSidecarWriter returns the writer RunIngest uses when
// Params leaves Sidecar nil.
func NewDefaultSidecarWriter() SidecarWriter {
	return xmpSidecarWriter{}
}

func (xmpSidecarWriter) Write(projectRoot, dstRel string, patch XMPPatch) (string, error) {
	sidecarRel := dstRel + ".xmp"
	path := projectRoot + "/" + sidecarRel

	var b strings.Builder
	b.WriteString(`<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>` + "\n")
	b.WriteString(`<x:xmpmeta xmlns:x="adobe:ns:meta/">` + "\n")
	b.WriteString(`  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">` + "\n")
	b.WriteString(`    <rdf:Description xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:xmpRights="http://ns.adobe.com/xap/1.0/rights/">` + "\n")
	if patch.Creator != "" {
		fmt.Fprintf(&b, "      <dc:creator>%s</dc:creator>\n", escapeXML(patch.Creator))
	}
	if patch.Rights != "" {
		fmt.Fprintf(&b, "      <dc:rights>%s</dc:rights>\n", escapeXML(patch.Rights))
	}
	if patch.WebStatement != "" {
		fmt.Fprintf(&b, "      <xmpRights:WebStatement>%s</xmpRights:WebStatement>\n", escapeXML(patch.WebStatement))
	}
	if patch.Credit != "" {
		fmt.Fprintf(&b, "      <dc:credit>%s</dc:credit>\n", escapeXML(patch.Credit))
	}
	b.WriteString("    </rdf:Description>\n")
	b.WriteString("  </rdf:RDF>\n")
	b.WriteString("</x:xmpmeta>\n")
	b.WriteString(`<?xpacket end="w"?>` + "\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", err
	}
	return sidecarRel, nil
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}

// writeSidecars invokes writer for every copied entry, recording the
// outcome on the entry. Failures never affect safe_to_format.
func writeSidecars(ctx context.Context, entries []*FileEntry, projectRoot string, patch XMPPatch, writer SidecarWriter, em *emitter) {
	written, failed := 0, 0
	var copiedCount int
	for _, e := range entries {
		if e.Status == StatusCopied {
			copiedCount++
		}
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.Status != StatusCopied {
			continue
		}
		path, err := writer.Write(projectRoot, e.DstRel, patch)
		ok := err == nil
		e.SidecarWritten = &ok
		if err != nil {
			failed++
			e.SidecarError = err.Error()
		} else {
			written++
			e.SidecarPath = path
		}
		em.emit(EventXMPProgress, EvXMPProgress{WrittenCount: written, FailedCount: failed, Total: copiedCount})
	}
}
