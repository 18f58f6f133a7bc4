package registration

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"github.com/medexa/medexa-platform/internal/accounts"
	"github.com/medexa/medexa-platform/internal/session"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Specialties a doctor can register under.
var Specialties = []string{
	"Medicina General",
	"Pediatría",
	"Ginecología",
	"Cardiología",
	"Dermatología",
	"Neurología",
	"Oftalmología",
	"Odontología",
	"Psicología",
	"Nutrición",
}

const (
	MaxDocumentBytes = 5 << 20
	maxRequestBytes  = 3*MaxDocumentBytes + 1<<20
)

// Document kinds, in upload order.
const (
	DocTitle       = "titulo"
	DocIDCard      = "cedula"
	DocCertificate = "certificado"
)

var documentKinds = []string{DocTitle, DocIDCard, DocCertificate}

var allowedDocumentTypes = map[string]string{
	"application/pdf": "pdf",
	"image/jpeg":      "jpg",
	"image/png":       "png",
}

var missingDocumentMessages = map[string]string{
	DocTitle:       "El título universitario es requerido",
	DocIDCard:      "La cédula de identidad es requerida",
	DocCertificate: "El certificado de colegiación es requerido",
}

type document struct {
	contentType string
	ext         string
	data        []byte
}

type doctorForm struct {
	firstName       string
	lastName        string
	email           string
	password        string
	confirmPassword string
	phone           string
	licenseNumber   string
	specialty       string
	declaration     bool
	documents       map[string]*document
}

// validate returns field errors keyed by form field. It is empty when the
// form is acceptable.
func (f *doctorForm) validate() map[string]string {
	errs := make(map[string]string)
	if f.firstName == "" {
		errs["firstName"] = "El nombre es requerido"
	}
	if f.lastName == "" {
		errs["lastName"] = "El apellido es requerido"
	}
	if f.email == "" {
		errs["email"] = "El email es requerido"
	} else if !emailPattern.MatchString(f.email) {
		errs["email"] = "Email inválido"
	}
	if f.password == "" {
		errs["password"] = "La contraseña es requerida"
	} else if len(f.password) < minPasswordLength {
		errs["password"] = msgPasswordShort
	}
	if f.password != f.confirmPassword {
		errs["confirmPassword"] = msgPasswordMismatch
	}
	if f.phone == "" {
		errs["phone"] = "El teléfono es requerido"
	}
	if f.licenseNumber == "" {
		errs["licenseNumber"] = "El número de colegiación es requerido"
	}
	if f.specialty == "" {
		errs["specialty"] = "La especialidad es requerida"
	} else if !slices.Contains(Specialties, f.specialty) {
		errs["specialty"] = "Especialidad no válida"
	}
	if !f.declaration {
		errs["declaration"] = "Debe aceptar la declaración jurada"
	}
	return errs
}

func parseDoctorForm(r *http.Request) (*doctorForm, map[string]string) {
	val := func(key string) string { return strings.TrimSpace(r.FormValue(key)) }
	form := &doctorForm{
		firstName:       val("firstName"),
		lastName:        val("lastName"),
		email:           val("email"),
		password:        r.FormValue("password"),
		confirmPassword: r.FormValue("confirmPassword"),
		phone:           val("phone"),
		licenseNumber:   val("licenseNumber"),
		specialty:       val("specialty"),
		documents:       make(map[string]*document, len(documentKinds)),
	}
	switch strings.ToLower(val("declaration")) {
	case "true", "on", "1", "yes":
		form.declaration = true
	}

	errs := form.validate()
	for _, kind := range documentKinds {
		doc, msg := readDocument(r, kind)
		if msg != "" {
			errs[kind] = msg
			continue
		}
		form.documents[kind] = doc
	}
	return form, errs
}

func readDocument(r *http.Request, kind string) (*document, string) {
	file, header, err := r.FormFile(kind)
	if err != nil {
		return nil, missingDocumentMessages[kind]
	}
	defer file.Close()
	if header.Size > MaxDocumentBytes {
		return nil, "El archivo debe ser menor a 5MB"
	}
	data, err := io.ReadAll(io.LimitReader(file, MaxDocumentBytes+1))
	if err != nil {
		return nil, missingDocumentMessages[kind]
	}
	if len(data) > MaxDocumentBytes {
		return nil, "El archivo debe ser menor a 5MB"
	}
	if len(data) == 0 {
		return nil, missingDocumentMessages[kind]
	}
	contentType := http.DetectContentType(data)
	ext, ok := allowedDocumentTypes[contentType]
	if !ok {
		return nil, "El archivo debe ser PDF, JPG o PNG"
	}
	// The stored extension follows the detected type; the client filename is ignored.
	return &document{contentType: contentType, ext: ext, data: data}, ""
}

// RegisterDoctor handles POST /doctors/register. The account is created
// before the documents are uploaded; an upload failure leaves an account
// without a doctor profile.
func (h *Handler) RegisterDoctor(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseMultipartForm(maxRequestBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "El archivo debe ser menor a 5MB")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	form, errs := parseDoctorForm(r)
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "Por favor, complete todos los campos requeridos",
			"fields": errs,
		})
		return
	}

	ctx := r.Context()
	res, err := h.auth.SignUp(ctx, form.email, form.password, session.Metadata{
		Role:      string(accounts.RoleDoctor),
		FirstName: form.firstName,
		LastName:  form.lastName,
		Phone:     form.phone,
	})
	if err != nil {
		h.logger.Warn("doctor sign-up rejected", "error", err)
		writeError(w, http.StatusUnprocessableEntity, msgSignUpFailed)
		return
	}

	millis := h.now().UnixMilli()
	paths := make(map[string]string, len(documentKinds))
	for _, kind := range documentKinds {
		doc := form.documents[kind]
		path := fmt.Sprintf("%s/%s_%d.%s", res.UserID, kind, millis, doc.ext)
		stored, err := h.files.Upload(ctx, h.bucket, path, doc.contentType, doc.data)
		if err != nil {
			h.logger.Error("doctor document upload failed", "error", err, "user_id", res.UserID, "document", kind)
			writeJSON(w, http.StatusBadGateway, map[string]any{"error": msgSignUpFailed, "retryable": true})
			return
		}
		paths[kind] = stored
	}

	if err := h.accounts.UpsertAccount(ctx, &accounts.Account{ID: res.UserID, Email: form.email, Role: accounts.RoleDoctor}); err != nil {
		h.logger.Error("doctor account write failed", "error", err, "user_id", res.UserID)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": msgSignUpFailed, "retryable": true})
		return
	}
	doctor := &accounts.DoctorProfile{
		ID:                 res.UserID,
		FirstName:          form.firstName,
		LastName:           form.lastName,
		Phone:              form.phone,
		Email:              form.email,
		Specialty:          form.specialty,
		LicenseNumber:      form.licenseNumber,
		TitlePath:          paths[DocTitle],
		IDCardPath:         paths[DocIDCard],
		LicensePath:        paths[DocCertificate],
		VerificationStatus: accounts.VerificationPending,
	}
	if err := h.accounts.UpsertDoctor(ctx, doctor); err != nil {
		h.logger.Error("doctor profile write failed", "error", err, "user_id", res.UserID)
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": msgSignUpFailed, "retryable": true})
		return
	}

	h.logger.Info("doctor registered", "user_id", res.UserID, "specialty", form.specialty)
	writeJSON(w, http.StatusCreated, map[string]string{"message": msgConfirmEmail, "user_id": res.UserID})
}
