package s3

type AccessKey struct {
	ID     string
	Name   string
	Secret string
}
