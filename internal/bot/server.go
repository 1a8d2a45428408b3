package bot

type server struct {
	prefix string
}
