package storage

func InitStore(dataDir string) (*FileStore, error) {
	store, err := NewFileStore(dataDir)
	if err != nil {
		return nil, err
	}
	return store, nil
}
