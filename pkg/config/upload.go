package config

// Назначения загружаемых файлов.
const (
	UploadHandoverDocument = "handover_document"
	UploadEquipmentImport  = "equipment_import"
)

type UploadConfig struct {
	AllowedMimeTypes []string
	MaxSizeMB        int64
	// Extensions - расширение сохранённого файла по MIME-типу содержимого.
	// Имя файла от клиента не используется.
	Extensions map[string]string
	// PathPrefix - каталог хранилища, куда файл попадает при загрузке.
	PathPrefix string
}

// UploadContexts задаёт правила для загружаемых файлов по их назначению.
var UploadContexts = map[string]UploadConfig{
	// Подписанный скан акта приема-передачи
	UploadHandoverDocument: {
		AllowedMimeTypes: []string{"application/pdf", "image/jpeg", "image/png"},
		MaxSizeMB:        20,
		Extensions: map[string]string{
			"application/pdf": ".pdf",
			"image/jpeg":      ".jpg",
			"image/png":       ".png",
		},
		PathPrefix: "staging",
	},
	// Файл импорта читается в памяти и не сохраняется.
	UploadEquipmentImport: {
		AllowedMimeTypes: []string{
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			"application/zip",
			"application/octet-stream",
		},
		MaxSizeMB: 10,
	},
}
