package gateway

const (
	qInventoryItems = `query {
  inventoryItems {
    id
    name
    quantity
    createdAt
  }
}`

	qInventoryItemByID = `query ($id: ID!) {
  inventoryItemById(id: $id) {
    id
    name
    quantity
    createdAt
  }
}`

	qUsers = `query {
  users {
    id
    name
    email
    createdAt
  }
}`

	qUserByID = `query ($id: ID!) {
  userById(id: $id) {
    id
    name
    email
    createdAt
  }
}`

	mAddInventoryItem = `mutation ($name: String!, $quantity: Int!) {
  addInventoryItem(name: $name, quantity: $quantity) {
    id
    name
    quantity
    createdAt
  }
}`

	mAddUser = `mutation ($name: String!, $email: String!) {
  addUser(name: $name, email: $email) {
    id
    name
    email
    createdAt
  }
}`
)
