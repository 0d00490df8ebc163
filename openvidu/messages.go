package openvidu

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// The taxonomy errors double as catalog keys; English is the fallback for
// unsupported tags.
var localizedMessages = func() catalog.Catalog {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	entries := []struct {
		err error
		en  string
		es  string
	}{
		{ErrSessionNotFound, "The session does not exist", "La sesión no existe"},
		{ErrSessionAlreadyExists, "A session with the same identifier already exists", "Ya existe una sesión con el mismo identificador"},
		{ErrNoConnectedParticipants, "The session has no connected participants", "La sesión no tiene participantes conectados"},
		{ErrSessionNotRecordable, "The session cannot be recorded: it is not routed or is already being recorded", "La sesión no se puede grabar: no está enrutada o ya se está grabando"},
		{ErrInvalidResolution, "The recording resolution is not acceptable", "La resolución de grabación no es aceptable"},
		{ErrRecordingDisabled, "Recording is disabled on the server", "La grabación está deshabilitada en el servidor"},
		{ErrRecordingNotFound, "The recording does not exist", "La grabación no existe"},
		{ErrRecordingStatusConflict, "The recording status does not allow this operation", "El estado de la grabación no permite esta operación"},
		{ErrConnectionNotFound, "The connection does not exist", "La conexión no existe"},
		{ErrStreamNotFound, "The stream does not exist", "El flujo no existe"},
	}
	for _, entry := range entries {
		builder.SetString(language.English, entry.err.Error(), entry.en)
		builder.SetString(language.Spanish, entry.err.Error(), entry.es)
	}
	return builder
}()

// Localize resolves a human-readable message for an SDK error in the
// requested language. Taxonomy errors are translated through the message
// catalog; a ServerError yields the remote-supplied message; anything else
// falls back to the error's own text.
func Localize(err error, tag language.Tag) string {
	if err == nil {
		return ""
	}
	for _, sentinel := range []error{
		ErrSessionNotFound,
		ErrSessionAlreadyExists,
		ErrNoConnectedParticipants,
		ErrSessionNotRecordable,
		ErrInvalidResolution,
		ErrRecordingDisabled,
		ErrRecordingNotFound,
		ErrRecordingStatusConflict,
		ErrConnectionNotFound,
		ErrStreamNotFound,
	} {
		if errors.Is(err, sentinel) {
			printer := message.NewPrinter(tag, message.Catalog(localizedMessages))
			return printer.Sprintf(sentinel.Error())
		}
	}
	var remote *ServerError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}
