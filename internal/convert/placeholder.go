package convert

import (
	"fmt"
	"path/filepath"
)

const placeholderTemplate = `# PDF Content from %s

**Note:** PDF processing failed. This is a placeholder for development purposes.

**File Information:**
- File: %s
- Size: %d bytes
- Status: PDF processing failed, using fallback

**Troubleshooting:**
This usually indicates one of the following issues:
1. The PDF file may be corrupted or encrypted
2. The PDF file may contain only images without extractable text
3. There may be a permissions issue accessing the PDF file

**For development purposes:**
This would normally contain the extracted text from your PDF file.
You can replace this with sample text or manually extracted content.

**Sample Story Content:**
Maya discovered an old music box in her grandmother's attic. When she wound the tiny key, a delicate ballerina began to spin, and magical notes filled the air. Suddenly, the room transformed into a grand ballroom from long ago.

The ballerina stepped out of the music box and offered Maya her hand. "Welcome to the Dance of Dreams," she whispered. Together, they waltzed across clouds of silver and gold, while shooting stars provided the rhythm.

As the final note played, Maya found herself back in the dusty attic. But in her hand remained a tiny silver key, proof that magic exists for those who believe in wonder.
`

// placeholderText stands in for a PDF whose text layer could not be read.
// It goes through the same pipeline as real extracted text.
func placeholderText(path string, size int64) string {
	return fmt.Sprintf(placeholderTemplate, filepath.Base(path), path, size)
}
