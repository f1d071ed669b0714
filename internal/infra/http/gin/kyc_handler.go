package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"livonto/internal/app/commands"
	kycapp "livonto/internal/app/handlers/kyc"
)

const maxKycDocumentBytes = 10 << 20

type KycHandler struct {
	Commands commands.Bus
}

// Submit accepts a multipart form with doc_type, doc_number and a document
// file.
func (h KycHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "commands unavailable"})
		return
	}
	docType := c.PostForm("doc_type")
	docNumber := c.PostForm("doc_number")
	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file is required"})
		return
	}
	if fileHeader.Size > maxKycDocumentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "document exceeds 10MB"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read document"})
		return
	}
	defer file.Close()

	cmd := kycapp.SubmitKycCommand{
		UserID:      user.ID,
		DocType:     docType,
		DocNumber:   docNumber,
		Document:    file,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}
	result, err := commands.Dispatch[kycapp.SubmitKycCommand, *kycapp.SubmitKycResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ KycHTTP = KycHandler{}
