package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

var ErrorAccountBlocked = errors.New("compte temporairement bloque")

var ErrorTooManyAttempts = errors.New("trop de tentatives, veuillez reessayer plus tard")

var ErrorInvalidCredentials = errors.New("identifiants incorrects")

var ErrorInvalidStatut = errors.New("statut invalide")

var ErrorInvalidAvancement = errors.New("avancement invalide, doit etre entre 0 et 100")
